package models

import (
	"strings"
	"time"
)

// Task represents a single unit of tracked work. A task with no EndTime is
// live: a session is (or was) running against it.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	ProjectID   string     `json:"project_id"`
	CustomerID  string     `json:"customer_id,omitempty"`
	Tags        string     `json:"tags,omitempty"` // comma-delimited tag names
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`     // nil while running
	Duration    *int64     `json:"duration_sec,omitempty"` // seconds, set on stop

	IsCompleted   bool `json:"is_completed"`
	IsPaid        bool `json:"is_paid"`
	IsArchived    bool `json:"is_archived"`
	IsInterrupted bool `json:"is_interrupted"`
	IsDraft       bool `json:"is_draft"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Display fields joined from the current Project/Customer records on
	// every read. Stored copies are never trusted.
	ProjectName  string `json:"project_name,omitempty"`
	ProjectColor string `json:"project_color,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// IsLive reports whether the task still has a running session.
func (t Task) IsLive() bool {
	return t.EndTime == nil
}

// TagList splits the delimited tags string into individual names.
func (t Task) TagList() []string {
	if t.Tags == "" {
		return nil
	}
	parts := strings.Split(t.Tags, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Project groups tasks and optionally links one customer and one external
// sync database.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ColorHex       string    `json:"color_hex"`
	CustomerID     string    `json:"customer_id,omitempty"`
	SyncDatabaseID string    `json:"sync_database_id,omitempty"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Customer is an invoicing counterpart.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag is a named label with a display color. Tasks reference tags by name,
// so renaming a tag does not rewrite tasks that stored the old name.
type Tag struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ColorHex   string    `json:"color_hex"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Settings is the singleton application settings record.
type Settings struct {
	IdleTimeoutMinutes int     `json:"idle_timeout_minutes"`
	HourlyRate         float64 `json:"hourly_rate"`
	ReportRangeDays    int     `json:"report_range_days"`
	SyncEnabled        bool    `json:"sync_enabled"`
	SyncToken          string  `json:"sync_token,omitempty"`
}

// DefaultSettings is written on first run before the first read.
func DefaultSettings() Settings {
	return Settings{
		IdleTimeoutMinutes: 5,
		HourlyRate:         0,
		ReportRangeDays:    7,
	}
}

// TaskInput is the payload for creating a task.
type TaskInput struct {
	Description string `validate:"max=500"`
	ProjectID   string `validate:"required"`
	CustomerID  string
	Tags        string
	StartTime   time.Time
	EndTime     *time.Time
	Duration    *int64 `validate:"omitempty,gte=0"`

	IsCompleted   bool
	IsPaid        bool
	IsArchived    bool
	IsInterrupted bool
	IsDraft       bool
}

// TaskPatch carries a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Description *string
	ProjectID   *string
	CustomerID  *string
	Tags        *string
	StartTime   *time.Time
	EndTime     *time.Time
	Duration    *int64

	IsCompleted   *bool
	IsPaid        *bool
	IsArchived    *bool
	IsInterrupted *bool
	IsDraft       *bool

	// Callers that change the project must pass the new display fields
	// themselves; patches never trigger a re-join.
	ProjectName  *string
	ProjectColor *string
	CustomerName *string
}

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Name           string `validate:"required,max=200"`
	ColorHex       string `validate:"omitempty,hexcolor"`
	CustomerID     string
	SyncDatabaseID string
}

// ProjectPatch carries a partial project update.
type ProjectPatch struct {
	Name           *string
	ColorHex       *string
	CustomerID     *string
	SyncDatabaseID *string
	IsArchived     *bool
}

// CustomerInput is the payload for creating a customer.
type CustomerInput struct {
	Name  string `validate:"required,max=200"`
	Email string `validate:"omitempty,email"`
	Phone string
}

// CustomerPatch carries a partial customer update.
type CustomerPatch struct {
	Name       *string
	Email      *string
	Phone      *string
	IsArchived *bool
}

// TagInput is the payload for creating a tag.
type TagInput struct {
	Name     string `validate:"required,max=100"`
	ColorHex string `validate:"omitempty,hexcolor"`
}

// TagPatch carries a partial tag update.
type TagPatch struct {
	Name       *string
	ColorHex   *string
	IsArchived *bool
}

// SettingsPatch carries a partial settings update; unspecified keys retain
// their prior value.
type SettingsPatch struct {
	IdleTimeoutMinutes *int
	HourlyRate         *float64
	ReportRangeDays    *int
	SyncEnabled        *bool
	SyncToken          *string
}
