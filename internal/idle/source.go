package idle

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandSource reads idle time by running an external helper that prints
// milliseconds since the last input (xprintidle on X11).
type CommandSource struct {
	Command string
	Args    []string
}

// NewCommandSource returns the default source for the current desktop.
func NewCommandSource() *CommandSource {
	return &CommandSource{Command: "xprintidle"}
}

func (c *CommandSource) IdleSeconds() (float64, error) {
	out, err := exec.Command(c.Command, c.Args...).Output()
	if err != nil {
		return 0, fmt.Errorf("running %s: %w", c.Command, err)
	}
	ms, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s output: %w", c.Command, err)
	}
	return ms / 1000, nil
}

var _ InputSource = (*CommandSource)(nil)
