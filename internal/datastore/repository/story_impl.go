package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storyRepository implements StoryRepository on a GORM database.
type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new StoryRepository.
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

// Put saves or overwrites a story (upsert on the primary key).
func (r *storyRepository) Put(ctx context.Context, story *entities.Story) error {
	if story.ID == "" {
		return fmt.Errorf("failed to put story: missing story ID")
	}
	story.NormalizeLocation()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(story).Error
	if err != nil {
		return fmt.Errorf("failed to put story %s: %w", story.ID, err)
	}
	return nil
}

// PutMany upserts each story independently. Records that fail are
// collected in the result; only a total failure yields a non-nil error.
func (r *storyRepository) PutMany(ctx context.Context, stories []entities.Story) (BatchResult, error) {
	result := BatchResult{Attempted: len(stories)}
	if len(stories) == 0 {
		return result, nil
	}

	var firstErr error
	for i := range stories {
		if err := r.Put(ctx, &stories[i]); err != nil {
			result.FailedIDs = append(result.FailedIDs, stories[i].ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Written++
	}

	if result.NoneWritten() {
		return result, fmt.Errorf("failed to put any of %d stories: %w", result.Attempted, firstErr)
	}
	return result, nil
}

// GetAll returns every cached story ordered newest first.
func (r *storyRepository) GetAll(ctx context.Context) ([]entities.Story, error) {
	var stories []entities.Story
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("failed to list cached stories: %w", err)
	}
	return stories, nil
}

// GetByID returns a single cached story.
// Returns ErrStoryNotFound if the story is not cached.
func (r *storyRepository) GetByID(ctx context.Context, id string) (*entities.Story, error) {
	var story entities.Story
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&story).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to get cached story %s: %w", id, err)
	}
	return &story, nil
}

// Delete removes a cached story. Absent ids succeed silently.
func (r *storyRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Story{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete cached story %s: %w", id, err)
	}
	return nil
}

// Clear removes every cached story.
func (r *storyRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Story{}).Error; err != nil {
		return fmt.Errorf("failed to clear cached stories: %w", err)
	}
	return nil
}
