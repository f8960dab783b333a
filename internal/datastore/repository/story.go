package repository

import (
	"context"
	"errors"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
)

// ErrStoryNotFound is returned by GetByID when no record matches the id.
var ErrStoryNotFound = errors.New("story not found")

// BatchResult reports the outcome of a PutMany call. Each record's write
// succeeds or fails independently; the result carries counts rather than
// an all-or-nothing transaction guarantee so callers can tell "none
// written" from "some written" from "all written".
type BatchResult struct {
	Attempted int
	Written   int
	FailedIDs []string
}

// AllWritten reports whether every attempted record was stored.
func (r BatchResult) AllWritten() bool {
	return r.Written == r.Attempted
}

// NoneWritten reports whether no record was stored despite attempts.
func (r BatchResult) NoneWritten() bool {
	return r.Attempted > 0 && r.Written == 0
}

// StoryRepository is the offline story cache. Records persist across
// process restarts and never expire on their own; removal is always an
// explicit Delete or Clear.
type StoryRepository interface {
	// Put inserts or overwrites the record keyed by story.ID.
	Put(ctx context.Context, story *entities.Story) error
	// PutMany applies Put per element. A partial failure returns a nil
	// error with FailedIDs populated; a total failure returns an error
	// alongside the zero-written result.
	PutMany(ctx context.Context, stories []entities.Story) (BatchResult, error)
	// GetAll returns every stored story, newest first by CreatedAt.
	GetAll(ctx context.Context) ([]entities.Story, error)
	// GetByID returns the matching story or ErrStoryNotFound.
	GetByID(ctx context.Context, id string) (*entities.Story, error)
	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// Clear empties the store.
	Clear(ctx context.Context) error
}

// SubscriptionRepository stores the locally held web push subscription.
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *entities.PushSubscription) error
	Get(ctx context.Context) (*entities.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// ErrSubscriptionNotFound is returned by Get when no subscription is stored.
var ErrSubscriptionNotFound = errors.New("push subscription not found")
