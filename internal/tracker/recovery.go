package tracker

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
	"github.com/soufiyanbenallal/track-app-sub000/internal/store"
)

// IdleChoice is the user's answer to the idle resolution dialog.
type IdleChoice int

const (
	// DiscardIdleTime subtracts the idle span from the final duration.
	DiscardIdleTime IdleChoice = iota
	// KeepIdleTime counts the idle span as worked time.
	KeepIdleTime
	// StopAndSave finalizes the session as of the moment idle was first
	// detected, discarding everything accrued since.
	StopAndSave
)

// ResolveIdle applies the user's choice for the pending idle span. Only
// meaningful after an idle edge was observed for the current session.
func (t *Tracker) ResolveIdle(choice IdleChoice) (models.Task, error) {
	var task models.Task
	var err error
	t.do(func() { task, err = t.resolveIdle(choice) })
	return task, err
}

func (t *Tracker) resolveIdle(choice IdleChoice) (models.Task, error) {
	if t.state == StateIdle || t.idleSince.IsZero() {
		return models.Task{}, fmt.Errorf("%w: no idle span to resolve", ErrInvalidTransition)
	}

	idleSince := t.idleSince
	t.idleSince = time.Time{}

	switch choice {
	case DiscardIdleTime:
		span := int64(t.now().Sub(idleSince).Seconds())
		if span > 0 {
			t.idleAdjustment += span
		}
		t.log.Info("idle time discarded",
			zap.String("task_id", t.task.ID),
			zap.Int64("discarded_sec", span))
		return t.task, nil
	case StopAndSave:
		duration := t.elapsedAt(idleSince)
		return t.finalize(idleSince, duration)
	default: // KeepIdleTime
		return t.task, nil
	}
}

// CompleteDraftTask converts a draft checkpoint into a completed task with
// the supplied end time and duration.
func (t *Tracker) CompleteDraftTask(id string, endTime time.Time, duration int64) (models.Task, error) {
	task, err := t.store.GetTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if !task.IsDraft || task.IsCompleted {
		return models.Task{}, fmt.Errorf("task %s is not an open draft: %w", id, store.ErrNotFound)
	}

	completed := true
	cleared := false
	return t.store.UpdateTask(id, models.TaskPatch{
		EndTime:     &endTime,
		Duration:    &duration,
		IsCompleted: &completed,
		IsDraft:     &cleared,
	})
}

// ListInterruptedTasks returns the user-facing recovery queue.
func (t *Tracker) ListInterruptedTasks() ([]models.Task, error) {
	return t.store.ListInterruptedTasks()
}

// ResumeInterruptedTask starts a new session carrying the interrupted
// task's description, project and accrued time, then deletes the
// superseded record so the work never shows up twice.
func (t *Tracker) ResumeInterruptedTask(id string) (models.Task, error) {
	var task models.Task
	var err error
	t.do(func() { task, err = t.resumeInterrupted(id) })
	return task, err
}

func (t *Tracker) resumeInterrupted(id string) (models.Task, error) {
	old, err := t.store.GetTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if !old.IsInterrupted || old.IsCompleted {
		return models.Task{}, fmt.Errorf("task %s is not interrupted: %w", id, store.ErrNotFound)
	}

	var elapsed int64
	if old.Duration != nil {
		elapsed = *old.Duration
	}

	task, err := t.start(StartInput{
		Description:           old.Description,
		ProjectID:             old.ProjectID,
		CustomerID:            old.CustomerID,
		Tags:                  old.Tags,
		InitialElapsedSeconds: elapsed,
	})
	if err != nil {
		return models.Task{}, err
	}
	if err := t.store.DeleteTask(id); err != nil {
		t.log.Warn("could not delete superseded interrupted task",
			zap.String("task_id", id), zap.Error(err))
	}

	t.log.Info("resumed interrupted task",
		zap.String("old_task_id", id),
		zap.String("task_id", task.ID),
		zap.Int64("carried_sec", elapsed))
	return task, nil
}

// RemoveInterruptedTask discards an interrupted record outright.
func (t *Tracker) RemoveInterruptedTask(id string) error {
	return t.store.DeleteTask(id)
}

// Recover converts any task left live by a previous process into an
// interrupted record so it lands in the recovery queue. The last write
// stamp serves as the checkpoint moment; the wall clock now could be days
// later and would overcount.
func (t *Tracker) Recover() (int, error) {
	live, err := t.store.ListLiveTasks()
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, task := range live {
		end := task.UpdatedAt
		if end.Before(task.StartTime) {
			end = task.StartTime
		}
		duration := int64(end.Sub(task.StartTime).Seconds())
		interrupted := true
		notCompleted := false
		if _, err := t.store.UpdateTask(task.ID, models.TaskPatch{
			EndTime:       &end,
			Duration:      &duration,
			IsInterrupted: &interrupted,
			IsCompleted:   &notCompleted,
		}); err != nil {
			return recovered, err
		}
		recovered++
		t.log.Warn("recovered live task as interrupted",
			zap.String("task_id", task.ID),
			zap.Int64("duration_sec", duration))
	}
	return recovered, nil
}
