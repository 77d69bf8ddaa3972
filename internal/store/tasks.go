package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
	"github.com/soufiyanbenallal/track-app-sub000/internal/service"
)

// UnknownProjectName is joined onto tasks whose project no longer resolves.
const UnknownProjectName = "Unknown Project"

// TaskFilter narrows ListTasks results. Zero-valued fields do not filter.
type TaskFilter struct {
	ProjectID   string
	CustomerID  string
	Tag         string // substring match against the delimited tags string
	From        time.Time
	To          time.Time // exclusive
	IsPaid      *bool
	IsCompleted *bool
	IsArchived  *bool
	Search      string // free text over description, project and customer name
}

// ListTasks returns tasks matching the filter, most recent start first,
// with display fields freshly joined from the current project and customer
// records.
func (s *Store) ListTasks(filter TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return nil, err
	}
	joined, err := s.joinTasks(tasks)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(filter.Search)
	matched := make([]models.Task, 0, len(joined))
	for _, t := range joined {
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.CustomerID != "" && t.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Tag != "" && !strings.Contains(strings.ToLower(t.Tags), strings.ToLower(filter.Tag)) {
			continue
		}
		if !filter.From.IsZero() && t.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !t.StartTime.Before(filter.To) {
			continue
		}
		if filter.IsPaid != nil && t.IsPaid != *filter.IsPaid {
			continue
		}
		if filter.IsCompleted != nil && t.IsCompleted != *filter.IsCompleted {
			continue
		}
		if filter.IsArchived != nil && t.IsArchived != *filter.IsArchived {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(t.Description + " " + t.ProjectName + " " + t.CustomerName)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartTime.After(matched[j].StartTime)
	})
	return matched, nil
}

// GetTask returns a single joined task or ErrNotFound.
func (s *Store) GetTask(id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			joined, err := s.joinTasks([]models.Task{t})
			if err != nil {
				return models.Task{}, err
			}
			return joined[0], nil
		}
	}
	return models.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
}

// CreateTask validates the payload, assigns an id and timestamps, joins
// the display fields as of creation time and persists the record.
func (s *Store) CreateTask(in models.TaskInput) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInput(in); err != nil {
		return models.Task{}, err
	}

	now := s.now()
	task := models.Task{
		ID:            uuid.New().String(),
		Description:   in.Description,
		ProjectID:     in.ProjectID,
		CustomerID:    in.CustomerID,
		Tags:          in.Tags,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Duration:      in.Duration,
		IsCompleted:   in.IsCompleted,
		IsPaid:        in.IsPaid,
		IsArchived:    in.IsArchived,
		IsInterrupted: in.IsInterrupted,
		IsDraft:       in.IsDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if task.StartTime.IsZero() {
		task.StartTime = now
	}
	if err := checkTaskFlags(task); err != nil {
		return models.Task{}, err
	}

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return models.Task{}, err
	}
	tasks = append(tasks, task)
	if err := saveCollection(s.backend, colTasks, tasks); err != nil {
		return models.Task{}, err
	}

	joined, err := s.joinTasks([]models.Task{task})
	if err != nil {
		return models.Task{}, err
	}
	s.log.Debug("task created", zap.String("id", task.ID), zap.String("project_id", task.ProjectID))
	return joined[0], nil
}

// UpdateTask merges the patch into the task with the given id. Missing ids
// are an error; display fields are only touched if the patch carries them.
func (s *Store) UpdateTask(id string, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return models.Task{}, err
	}

	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	merged := applyTaskPatch(tasks[idx], patch)
	merged.UpdatedAt = s.now()
	if err := checkTaskFlags(merged); err != nil {
		return models.Task{}, err
	}

	tasks[idx] = merged
	if err := saveCollection(s.backend, colTasks, tasks); err != nil {
		return models.Task{}, err
	}
	return merged, nil
}

// DeleteTask removes the task if present. Absent ids are not an error.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return err
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return nil
	}
	return saveCollection(s.backend, colTasks, kept)
}

// BulkUpdateTaskStatus applies the same patch to every task in ids,
// stamping each one's UpdatedAt. Returns how many tasks changed.
func (s *Store) BulkUpdateTaskStatus(ids []string, patch models.TaskPatch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return 0, err
	}

	now := s.now()
	updated := 0
	for i, t := range tasks {
		if !wanted[t.ID] {
			continue
		}
		merged := applyTaskPatch(t, patch)
		merged.UpdatedAt = now
		if err := checkTaskFlags(merged); err != nil {
			return 0, err
		}
		tasks[i] = merged
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	if err := saveCollection(s.backend, colTasks, tasks); err != nil {
		return 0, err
	}
	return updated, nil
}

// BulkArchivePaidTasks archives every paid, not yet archived task. Tasks
// already archived or unpaid are left untouched.
func (s *Store) BulkArchivePaidTasks() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return 0, err
	}

	now := s.now()
	archived := 0
	for i, t := range tasks {
		if !t.IsPaid || t.IsArchived {
			continue
		}
		tasks[i].IsArchived = true
		tasks[i].UpdatedAt = now
		archived++
	}
	if archived == 0 {
		return 0, nil
	}
	if err := saveCollection(s.backend, colTasks, tasks); err != nil {
		return 0, err
	}
	s.log.Info("archived paid tasks", zap.Int("count", archived))
	return archived, nil
}

// ListInterruptedTasks returns the recovery queue: interrupted, not
// archived, newest UpdatedAt first, fully joined.
func (s *Store) ListInterruptedTasks() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return nil, err
	}
	interrupted := make([]models.Task, 0)
	for _, t := range tasks {
		if t.IsInterrupted && !t.IsArchived {
			interrupted = append(interrupted, t)
		}
	}
	sort.SliceStable(interrupted, func(i, j int) bool {
		return interrupted[i].UpdatedAt.After(interrupted[j].UpdatedAt)
	})
	return s.joinTasks(interrupted)
}

// ListLiveTasks returns tasks with no end time, i.e. sessions left running
// by a previous process.
func (s *Store) ListLiveTasks() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return nil, err
	}
	live := make([]models.Task, 0)
	for _, t := range tasks {
		if t.IsLive() {
			live = append(live, t)
		}
	}
	return s.joinTasks(live)
}

// TotalTrackedSeconds sums the duration of completed tasks whose start
// falls in [from, to).
func (s *Store) TotalTrackedSeconds(from, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTrackedSeconds(from, to)
}

// TrackedSecondsToday sums over the current calendar day.
func (s *Store) TrackedSecondsToday() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := service.DayRange(s.now())
	return s.totalTrackedSeconds(from, to)
}

// TrackedSecondsThisWeek sums over the current week, starting Sunday.
func (s *Store) TrackedSecondsThisWeek() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := service.WeekRange(s.now())
	return s.totalTrackedSeconds(from, to)
}

// TrackedSecondsThisMonth sums over the current calendar month.
func (s *Store) TrackedSecondsThisMonth() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := service.MonthRange(s.now())
	return s.totalTrackedSeconds(from, to)
}

// TrackedSecondsByDay buckets completed time in [from, to) per calendar
// day, keyed by service.DayKey.
func (s *Store) TrackedSecondsByDay(from, to time.Time) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, t := range tasks {
		if !countsTowardTotals(t, from, to) {
			continue
		}
		totals[service.DayKey(t.StartTime)] += *t.Duration
	}
	return totals, nil
}

func (s *Store) totalTrackedSeconds(from, to time.Time) (int64, error) {
	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, t := range tasks {
		if countsTowardTotals(t, from, to) {
			total += *t.Duration
		}
	}
	return total, nil
}

func countsTowardTotals(t models.Task, from, to time.Time) bool {
	if !t.IsCompleted || t.Duration == nil {
		return false
	}
	return !t.StartTime.Before(from) && t.StartTime.Before(to)
}

// joinTasks recomputes the display fields from the current project and
// customer records. Stored copies are overwritten on every read so a
// rename never leaves stale names behind.
func (s *Store) joinTasks(tasks []models.Task) ([]models.Task, error) {
	if len(tasks) == 0 {
		return []models.Task{}, nil
	}

	projects, err := loadCollection[models.Project](s.backend, colProjects)
	if err != nil {
		return nil, err
	}
	customers, err := loadCollection[models.Customer](s.backend, colCustomers)
	if err != nil {
		return nil, err
	}

	projectByID := make(map[string]models.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}
	customerByID := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		customerByID[c.ID] = c
	}

	joined := make([]models.Task, len(tasks))
	for i, t := range tasks {
		if p, ok := projectByID[t.ProjectID]; ok {
			t.ProjectName = p.Name
			t.ProjectColor = p.ColorHex
		} else {
			t.ProjectName = UnknownProjectName
			t.ProjectColor = ""
		}
		if c, ok := customerByID[t.CustomerID]; ok {
			t.CustomerName = c.Name
		} else {
			t.CustomerName = ""
		}
		joined[i] = t
	}
	return joined, nil
}

func applyTaskPatch(t models.Task, patch models.TaskPatch) models.Task {
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.ProjectID != nil {
		t.ProjectID = *patch.ProjectID
	}
	if patch.CustomerID != nil {
		t.CustomerID = *patch.CustomerID
	}
	if patch.Tags != nil {
		t.Tags = *patch.Tags
	}
	if patch.StartTime != nil {
		t.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		t.EndTime = patch.EndTime
	}
	if patch.Duration != nil {
		t.Duration = patch.Duration
	}
	if patch.IsCompleted != nil {
		t.IsCompleted = *patch.IsCompleted
	}
	if patch.IsPaid != nil {
		t.IsPaid = *patch.IsPaid
	}
	if patch.IsArchived != nil {
		t.IsArchived = *patch.IsArchived
	}
	if patch.IsInterrupted != nil {
		t.IsInterrupted = *patch.IsInterrupted
	}
	if patch.IsDraft != nil {
		t.IsDraft = *patch.IsDraft
	}
	if patch.ProjectName != nil {
		t.ProjectName = *patch.ProjectName
	}
	if patch.ProjectColor != nil {
		t.ProjectColor = *patch.ProjectColor
	}
	if patch.CustomerName != nil {
		t.CustomerName = *patch.CustomerName
	}
	return t
}

// checkTaskFlags rejects writes that would violate the task flag
// invariants: draft and interrupted are mutually exclusive, a completed
// task is neither, and a live task cannot be completed.
func checkTaskFlags(t models.Task) error {
	if t.IsDraft && t.IsInterrupted {
		return fmt.Errorf("%w: task cannot be both draft and interrupted", ErrInvalidInput)
	}
	if t.IsCompleted && (t.IsDraft || t.IsInterrupted) {
		return fmt.Errorf("%w: completed task cannot be draft or interrupted", ErrInvalidInput)
	}
	if t.IsCompleted && t.EndTime == nil {
		return fmt.Errorf("%w: completed task requires an end time", ErrInvalidInput)
	}
	return nil
}
