package store

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
)

// ListProjects returns projects sorted by name. Archived projects are
// excluded unless includeArchived is set.
func (s *Store) ListProjects(includeArchived bool) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := loadCollection[models.Project](s.backend, colProjects)
	if err != nil {
		return nil, err
	}
	result := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.IsArchived && !includeArchived {
			continue
		}
		result = append(result, p)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// GetProject returns a single project or ErrNotFound.
func (s *Store) GetProject(id string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := loadCollection[models.Project](s.backend, colProjects)
	if err != nil {
		return models.Project{}, err
	}
	for _, p := range projects {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}

func (s *Store) CreateProject(in models.ProjectInput) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInput(in); err != nil {
		return models.Project{}, err
	}

	now := s.now()
	project := models.Project{
		ID:             uuid.New().String(),
		Name:           in.Name,
		ColorHex:       in.ColorHex,
		CustomerID:     in.CustomerID,
		SyncDatabaseID: in.SyncDatabaseID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	projects, err := loadCollection[models.Project](s.backend, colProjects)
	if err != nil {
		return models.Project{}, err
	}
	projects = append(projects, project)
	if err := saveCollection(s.backend, colProjects, projects); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

func (s *Store) UpdateProject(id string, patch models.ProjectPatch) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := loadCollection[models.Project](s.backend, colProjects)
	if err != nil {
		return models.Project{}, err
	}
	for i, p := range projects {
		if p.ID != id {
			continue
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.ColorHex != nil {
			p.ColorHex = *patch.ColorHex
		}
		if patch.CustomerID != nil {
			p.CustomerID = *patch.CustomerID
		}
		if patch.SyncDatabaseID != nil {
			p.SyncDatabaseID = *patch.SyncDatabaseID
		}
		if patch.IsArchived != nil {
			p.IsArchived = *patch.IsArchived
		}
		p.UpdatedAt = s.now()
		projects[i] = p
		if err := saveCollection(s.backend, colProjects, projects); err != nil {
			return models.Project{}, err
		}
		return p, nil
	}
	return models.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}

// DeleteProject removes the project and every task referencing it as one
// logical unit. Tasks are rewritten first so a crash between the two
// writes can only leave orphan-free state behind. Absent ids are a no-op.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := loadCollection[models.Project](s.backend, colProjects)
	if err != nil {
		return err
	}
	keptProjects := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			keptProjects = append(keptProjects, p)
		}
	}
	if len(keptProjects) == len(projects) {
		return nil
	}

	tasks, err := loadCollection[models.Task](s.backend, colTasks)
	if err != nil {
		return err
	}
	keptTasks := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID != id {
			keptTasks = append(keptTasks, t)
		}
	}
	if len(keptTasks) != len(tasks) {
		if err := saveCollection(s.backend, colTasks, keptTasks); err != nil {
			return err
		}
	}
	if err := saveCollection(s.backend, colProjects, keptProjects); err != nil {
		return err
	}
	s.log.Info("deleted project with tasks",
		zap.String("id", id),
		zap.Int("cascaded_tasks", len(tasks)-len(keptTasks)))
	return nil
}
