// Package sync is the boundary to the external workspace tool. Pushing a
// completed task there is best-effort: callers fire it on a goroutine and
// only ever log failures.
package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
)

// Syncer mirrors a completed task into the project's external database,
// when the project carries one.
type Syncer interface {
	UpsertTask(ctx context.Context, task models.Task, project models.Project) error
}

// Disabled is the Syncer used when sync is turned off or no client is
// configured.
type Disabled struct {
	Log *zap.Logger
}

func (d Disabled) UpsertTask(_ context.Context, task models.Task, project models.Project) error {
	if d.Log != nil {
		d.Log.Debug("sync disabled, skipping task",
			zap.String("task_id", task.ID),
			zap.String("sync_database_id", project.SyncDatabaseID))
	}
	return nil
}

var _ Syncer = Disabled{}
