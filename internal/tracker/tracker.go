package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
	"github.com/soufiyanbenallal/track-app-sub000/internal/store"
	appsync "github.com/soufiyanbenallal/track-app-sub000/internal/sync"
)

// ErrInvalidTransition is returned when a request cannot be honored from
// the current session state. Nothing is persisted in that case.
var ErrInvalidTransition = errors.New("invalid transition")

// State of the session machine.
type State int

const (
	// StateIdle means no session is running.
	StateIdle State = iota
	// StateTracking means a session is running and the user is active.
	StateTracking
	// StateTrackingUserIdle means a session is running but the user has
	// crossed the idle threshold. Time keeps accruing until resolved.
	StateTrackingUserIdle
)

func (s State) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StateTrackingUserIdle:
		return "tracking-user-idle"
	default:
		return "idle"
	}
}

// StartInput carries everything needed to begin a session.
type StartInput struct {
	Description string
	ProjectID   string
	CustomerID  string
	Tags        string

	// ExplicitStartTime backdates the session start; zero means now.
	ExplicitStartTime time.Time
	// InitialElapsedSeconds seeds elapsed time already accrued before
	// this session, used when resuming an interrupted task.
	InitialElapsedSeconds int64
}

// Status is the snapshot the UI polls at ~1 Hz.
type Status struct {
	IsTracking     bool
	IsIdle         bool
	CurrentTask    models.Task
	StartTime      time.Time
	ElapsedSeconds int64
}

// Tracker owns the one in-memory session. Every transition, whether an
// API call or an idle-monitor edge, runs on the single run-loop goroutine,
// so transitions never interleave.
type Tracker struct {
	store  *store.Store
	syncer appsync.Syncer
	log    *zap.Logger
	now    func() time.Time

	cmds chan func()
	quit chan struct{}
	done chan struct{}

	// Session state below is confined to the run loop.
	state          State
	task           models.Task
	startTime      time.Time
	initialElapsed int64
	idleAdjustment int64
	idleSince      time.Time // set on the idle edge, cleared by resolution
}

// Config wires a Tracker.
type Config struct {
	Store  *store.Store
	Syncer appsync.Syncer
	Log    *zap.Logger
	Now    func() time.Time
}

func New(cfg Config) *Tracker {
	t := &Tracker{
		store:  cfg.Store,
		syncer: cfg.Syncer,
		log:    cfg.Log,
		now:    cfg.Now,
		cmds:   make(chan func()),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.syncer == nil {
		t.syncer = appsync.Disabled{Log: cfg.Log}
	}
	go t.run()
	return t
}

func (t *Tracker) run() {
	defer close(t.done)
	for {
		select {
		case f := <-t.cmds:
			f()
		case <-t.quit:
			return
		}
	}
}

// Close stops the run loop. A live session is left as-is on disk; Recover
// picks it up as an interrupted task on the next start.
func (t *Tracker) Close() {
	select {
	case <-t.quit:
	default:
		close(t.quit)
	}
	<-t.done
}

// do runs f on the run loop and waits for it.
func (t *Tracker) do(f func()) {
	done := make(chan struct{})
	select {
	case t.cmds <- func() { f(); close(done) }:
		<-done
	case <-t.quit:
	}
}

// Start begins a session. A session already running is stopped first, so
// two live tasks can never coexist.
func (t *Tracker) Start(in StartInput) (models.Task, error) {
	var task models.Task
	var err error
	t.do(func() { task, err = t.start(in) })
	return task, err
}

func (t *Tracker) start(in StartInput) (models.Task, error) {
	if strings.TrimSpace(in.Description) == "" || in.ProjectID == "" {
		return models.Task{}, fmt.Errorf("%w: description and project are required to start", ErrInvalidTransition)
	}

	if t.state != StateIdle {
		if _, err := t.stop(0); err != nil {
			return models.Task{}, err
		}
	}

	startTime := in.ExplicitStartTime
	if startTime.IsZero() {
		startTime = t.now()
	}

	task, err := t.store.CreateTask(models.TaskInput{
		Description: in.Description,
		ProjectID:   in.ProjectID,
		CustomerID:  in.CustomerID,
		Tags:        in.Tags,
		StartTime:   startTime,
	})
	if err != nil {
		return models.Task{}, err
	}

	t.state = StateTracking
	t.task = task
	t.startTime = startTime
	t.initialElapsed = in.InitialElapsedSeconds
	t.idleAdjustment = 0
	t.idleSince = time.Time{}

	t.log.Info("session started",
		zap.String("task_id", task.ID),
		zap.String("project_id", task.ProjectID),
		zap.Int64("initial_elapsed", in.InitialElapsedSeconds))
	return task, nil
}

// Stop finalizes the session as of now. finalIdleAdjustmentSeconds is
// subtracted from the duration when the user chose to discard idle time
// right at stop. Stopping with no session is a no-op.
func (t *Tracker) Stop(finalIdleAdjustmentSeconds int64) (models.Task, error) {
	var task models.Task
	var err error
	t.do(func() { task, err = t.stop(finalIdleAdjustmentSeconds) })
	return task, err
}

func (t *Tracker) stop(finalAdjustment int64) (models.Task, error) {
	if t.state == StateIdle {
		return models.Task{}, nil
	}

	end := t.now()
	duration := t.elapsedAt(end) - finalAdjustment
	if duration < 0 {
		duration = 0
	}
	return t.finalize(end, duration)
}

// finalize completes the current task, clears the in-memory session and
// hands the result to the sync boundary. On a persistence failure the
// session is left untouched so the caller can retry.
func (t *Tracker) finalize(end time.Time, duration int64) (models.Task, error) {
	completed := true
	notDraft := false
	task, err := t.store.UpdateTask(t.task.ID, models.TaskPatch{
		EndTime:       &end,
		Duration:      &duration,
		IsCompleted:   &completed,
		IsDraft:       &notDraft,
		IsInterrupted: &notDraft,
	})
	if err != nil {
		return models.Task{}, err
	}

	t.log.Info("session stopped",
		zap.String("task_id", task.ID),
		zap.Int64("duration_sec", duration))
	t.clearSession()
	go t.pushToSync(task)
	return task, nil
}

// Interrupt checkpoints the session as an interrupted task so no tracked
// time is lost if the process dies before an orderly stop. No-op when no
// session is running.
func (t *Tracker) Interrupt() (models.Task, error) {
	var task models.Task
	var err error
	t.do(func() { task, err = t.interrupt() })
	return task, err
}

func (t *Tracker) interrupt() (models.Task, error) {
	if t.state == StateIdle {
		return models.Task{}, nil
	}

	end := t.now()
	duration := t.elapsedAt(end)
	interrupted := true
	notCompleted := false
	task, err := t.store.UpdateTask(t.task.ID, models.TaskPatch{
		EndTime:       &end,
		Duration:      &duration,
		IsInterrupted: &interrupted,
		IsCompleted:   &notCompleted,
	})
	if err != nil {
		return models.Task{}, err
	}

	t.log.Warn("session interrupted",
		zap.String("task_id", task.ID),
		zap.Int64("duration_sec", duration))
	t.clearSession()
	return task, nil
}

// Status returns the snapshot for display. Elapsed time is always derived
// from the wall clock at query time, so it stays correct across host
// suspends of any length.
func (t *Tracker) Status() Status {
	var st Status
	t.do(func() {
		st = Status{
			IsTracking:  t.state != StateIdle,
			IsIdle:      t.state == StateTrackingUserIdle,
			CurrentTask: t.task,
			StartTime:   t.startTime,
		}
		if st.IsTracking {
			st.ElapsedSeconds = t.elapsedAt(t.now())
		}
	})
	return st
}

// HandleIdle is the idle-monitor idle-edge callback.
func (t *Tracker) HandleIdle() {
	t.do(func() {
		if t.state != StateTracking {
			return
		}
		t.state = StateTrackingUserIdle
		t.idleSince = t.now()
		t.log.Info("user idle during session", zap.String("task_id", t.task.ID))
	})
}

// HandleActive is the idle-monitor active-edge callback. Elapsed time is
// untouched; any idle-span resolution happens through ResolveIdle.
func (t *Tracker) HandleActive() {
	t.do(func() {
		if t.state != StateTrackingUserIdle {
			return
		}
		t.state = StateTracking
		t.log.Info("user active during session", zap.String("task_id", t.task.ID))
	})
}

// elapsedAt computes accrued seconds as of ts: wall time since start plus
// any pre-session offset, minus idle spans already discarded.
func (t *Tracker) elapsedAt(ts time.Time) int64 {
	elapsed := int64(ts.Sub(t.startTime).Seconds()) + t.initialElapsed - t.idleAdjustment
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (t *Tracker) clearSession() {
	t.state = StateIdle
	t.task = models.Task{}
	t.startTime = time.Time{}
	t.initialElapsed = 0
	t.idleAdjustment = 0
	t.idleSince = time.Time{}
}

// pushToSync mirrors a completed task to the external workspace. Failures
// are logged and never reach the session path.
func (t *Tracker) pushToSync(task models.Task) {
	project, err := t.store.GetProject(task.ProjectID)
	if err != nil {
		t.log.Debug("sync skipped, project not found", zap.String("task_id", task.ID))
		return
	}
	if err := t.syncer.UpsertTask(context.Background(), task, project); err != nil {
		t.log.Warn("external sync failed",
			zap.String("task_id", task.ID),
			zap.Error(err))
	}
}
