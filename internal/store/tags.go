package store

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
)

// ListTags returns tags sorted by name. Archived tags are excluded unless
// includeArchived is set.
func (s *Store) ListTags(includeArchived bool) ([]models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := loadCollection[models.Tag](s.backend, colTags)
	if err != nil {
		return nil, err
	}
	result := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		if t.IsArchived && !includeArchived {
			continue
		}
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *Store) CreateTag(in models.TagInput) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInput(in); err != nil {
		return models.Tag{}, err
	}

	now := s.now()
	tag := models.Tag{
		ID:        uuid.New().String(),
		Name:      in.Name,
		ColorHex:  in.ColorHex,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tags, err := loadCollection[models.Tag](s.backend, colTags)
	if err != nil {
		return models.Tag{}, err
	}
	tags = append(tags, tag)
	if err := saveCollection(s.backend, colTags, tags); err != nil {
		return models.Tag{}, err
	}
	return tag, nil
}

// UpdateTag renames or recolors a tag. Tasks store tag names, not ids, so
// a rename does not touch tasks that stored the old name.
func (s *Store) UpdateTag(id string, patch models.TagPatch) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := loadCollection[models.Tag](s.backend, colTags)
	if err != nil {
		return models.Tag{}, err
	}
	for i, t := range tags {
		if t.ID != id {
			continue
		}
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.ColorHex != nil {
			t.ColorHex = *patch.ColorHex
		}
		if patch.IsArchived != nil {
			t.IsArchived = *patch.IsArchived
		}
		t.UpdatedAt = s.now()
		tags[i] = t
		if err := saveCollection(s.backend, colTags, tags); err != nil {
			return models.Tag{}, err
		}
		return t, nil
	}
	return models.Tag{}, fmt.Errorf("tag %s: %w", id, ErrNotFound)
}

func (s *Store) DeleteTag(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := loadCollection[models.Tag](s.backend, colTags)
	if err != nil {
		return err
	}
	kept := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tags) {
		return nil
	}
	return saveCollection(s.backend, colTags, kept)
}
