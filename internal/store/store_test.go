package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return New(backend, zap.NewNop())
}

func TestSettingsSeededOnFirstRead(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	settings, err := s.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	// The seed must be durable, not just an in-memory default.
	again, err := s.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, again)
}

func TestUpdateSettingsMergesPartialPatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	rate := 85.0
	_, err := s.UpdateSettings(models.SettingsPatch{HourlyRate: &rate})
	require.NoError(t, err)

	timeout := 10
	updated, err := s.UpdateSettings(models.SettingsPatch{IdleTimeoutMinutes: &timeout})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.IdleTimeoutMinutes)
	assert.Equal(t, 85.0, updated.HourlyRate, "unpatched key must keep prior value")
	assert.Equal(t, models.DefaultSettings().ReportRangeDays, updated.ReportRangeDays)

	settings, err := s.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, updated, settings)
}

func TestUpdateMissingRecordsReturnNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	name := "x"
	_, err := s.UpdateTask("missing", models.TaskPatch{Description: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateProject("missing", models.ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateCustomer("missing", models.CustomerPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateTag("missing", models.TagPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletesOfMissingRecordsAreIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	assert.NoError(t, s.DeleteTask("missing"))
	assert.NoError(t, s.DeleteProject("missing"))
	assert.NoError(t, s.DeleteCustomer("missing"))
	assert.NoError(t, s.DeleteTag("missing"))
}

func TestCreateTaskRejectsInvalidFlags(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	end := time.Now()
	tests := []struct {
		name string
		in   models.TaskInput
	}{
		{
			name: "draft and interrupted at once",
			in:   models.TaskInput{ProjectID: "p1", IsDraft: true, IsInterrupted: true, EndTime: &end},
		},
		{
			name: "completed draft",
			in:   models.TaskInput{ProjectID: "p1", IsCompleted: true, IsDraft: true, EndTime: &end},
		},
		{
			name: "live task marked completed",
			in:   models.TaskInput{ProjectID: "p1", IsCompleted: true},
		},
		{
			name: "missing project",
			in:   models.TaskInput{Description: "no project"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateTask(tc.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	tasks, err := s.ListTasks(TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks, "rejected payloads must not be persisted")
}

func TestTagRenameDoesNotRewriteTasks(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	tag, err := s.CreateTag(models.TagInput{Name: "billing", ColorHex: "#ff0000"})
	require.NoError(t, err)

	project, err := s.CreateProject(models.ProjectInput{Name: "P"})
	require.NoError(t, err)
	task, err := s.CreateTask(models.TaskInput{
		Description: "invoice run",
		ProjectID:   project.ID,
		Tags:        "billing,urgent",
	})
	require.NoError(t, err)

	renamed := "invoicing"
	_, err = s.UpdateTag(tag.ID, models.TagPatch{Name: &renamed})
	require.NoError(t, err)

	got, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing,urgent", got.Tags, "tasks reference tags by name; renames must not propagate")
}
