package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"github.com/adirahman/ceritakita-go/internal/datastore/repository"
	"github.com/adirahman/ceritakita-go/internal/gateway"
	"github.com/adirahman/ceritakita-go/internal/logger"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// detailMemoTTL bounds how long a fetched story detail is reused by
	// save-for-offline before it is fetched again.
	detailMemoTTL     = 5 * time.Minute
	detailMemoCleanup = 10 * time.Minute
)

// MessageKind classifies transient messages shown by the view.
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
	MessageInfo    MessageKind = "info"
)

// ErrNothingCached is served when the app is offline and the local cache
// holds no stories.
var ErrNothingCached = errors.New("you are offline and no stories are saved")

// ErrStoryUnavailable is reported when save-for-offline cannot locate the
// story in current results, remotely, or in the cache.
var ErrStoryUnavailable = errors.New("story not found to save")

// View is the presentation contract the orchestrator drives. It lists
// exactly the callbacks required; anything rendering stories (terminal,
// local web UI, tests) implements it.
type View interface {
	// RenderStories shows a listing. savedIDs marks which of the shown
	// stories are already in offline storage.
	RenderStories(stories []entities.Story, savedIDs map[string]bool)
	// RenderError replaces the listing with a failure message.
	RenderError(message string)
	// ShowMessage displays a transient message without touching the listing.
	ShowMessage(message string, kind MessageKind)
	// SetStorySaved toggles a story's saved indicator, including reverts
	// after a failed save or delete.
	SetStorySaved(id string, saved bool)
}

// Remote is the slice of the API gateway the orchestrator reads from.
type Remote interface {
	ListStories(ctx context.Context, opts gateway.ListOptions) ([]entities.Story, error)
	GetStoryByID(ctx context.Context, id string) (*entities.Story, error)
}

// ConnectivityProbe reports whether the remote service looks reachable.
type ConnectivityProbe interface {
	Online(ctx context.Context) bool
}

// Orchestrator is the single decision point for what story data the view
// sees: remote when available, the offline cache otherwise, with fresh
// remote results written back into the cache.
type Orchestrator struct {
	remote   Remote
	cache    repository.StoryRepository
	probe    ConnectivityProbe
	view     View
	listOpts gateway.ListOptions
	log      logger.Logger

	// loadSeq issues a token per load; a load whose token is no longer
	// current discards its results instead of racing a newer load.
	loadSeq atomic.Int64

	mu      sync.Mutex
	stories []entities.Story // last served listing, for save-for-offline lookup

	details *gocache.Cache // short-lived memo of remote detail fetches
}

// New creates an Orchestrator.
func New(remote Remote, cache repository.StoryRepository, probe ConnectivityProbe, view View, listOpts gateway.ListOptions, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		remote:   remote,
		cache:    cache,
		probe:    probe,
		view:     view,
		listOpts: listOpts,
		log:      log,
		details:  gocache.New(detailMemoTTL, detailMemoCleanup),
	}
}

// LoadStories resolves the current listing and drives the view.
// Online, a non-empty remote listing is written back into the cache and
// served in server order; an empty or failed remote listing falls back to
// the cache, resorted newest first. Offline, only the cache is read.
// No automatic retries: every failure surfaces once and the view offers
// the retry.
func (o *Orchestrator) LoadStories(ctx context.Context) error {
	token := o.loadSeq.Add(1)

	savedIDs := o.collectSavedIDs(ctx)

	online := o.probe.Online(ctx)
	var stories []entities.Story
	var loadErr error
	var reconcileMsg string

	if online {
		remoteStories, err := o.remote.ListStories(ctx, o.listOpts)
		switch {
		case err != nil:
			// Remote failure is recovered locally; the raw error goes no
			// further than the log.
			o.log.Warn("remote listing failed, falling back to cache", logger.Error(err))
			stories, loadErr = o.cache.GetAll(ctx)
		case len(remoteStories) == 0:
			// Prefer previously cached data over a possibly transient
			// empty server response.
			o.log.Info("remote listing empty, falling back to cache")
			stories, loadErr = o.cache.GetAll(ctx)
		default:
			reconcileMsg = o.reconcile(ctx, remoteStories)
			stories = remoteStories
		}
	} else {
		o.log.Info("offline, reading stories from cache")
		stories, loadErr = o.cache.GetAll(ctx)
	}

	if token != o.loadSeq.Load() {
		o.log.Debug("discarding stale load result", logger.Int64("token", token))
		return nil
	}

	if reconcileMsg != "" {
		o.view.ShowMessage(reconcileMsg, MessageError)
	}

	if loadErr != nil {
		o.view.RenderError(loadErr.Error())
		return loadErr
	}

	if len(stories) == 0 && !online {
		o.view.RenderError(ErrNothingCached.Error())
		return ErrNothingCached
	}

	o.mu.Lock()
	o.stories = stories
	o.mu.Unlock()

	o.view.RenderStories(stories, savedIDs)
	return nil
}

// LoadSavedStories shows only the offline cache; every listed story is
// saved by definition.
func (o *Orchestrator) LoadSavedStories(ctx context.Context) error {
	stories, err := o.cache.GetAll(ctx)
	if err != nil {
		o.view.RenderError(err.Error())
		return err
	}

	savedIDs := make(map[string]bool, len(stories))
	for _, s := range stories {
		savedIDs[s.ID] = true
	}

	o.mu.Lock()
	o.stories = stories
	o.mu.Unlock()

	o.view.RenderStories(stories, savedIDs)
	if len(stories) == 0 {
		o.view.ShowMessage("no stories saved for offline reading yet", MessageInfo)
	}
	return nil
}

// SaveForOffline stores one story into the cache. The story is located
// among the last served results first, then fetched remotely when online,
// then looked up in the cache itself when offline. A failure reverts the
// view's optimistic saved state.
func (o *Orchestrator) SaveForOffline(ctx context.Context, id string) error {
	story, err := o.locateStory(ctx, id)
	if err != nil {
		o.view.ShowMessage(err.Error(), MessageError)
		o.view.SetStorySaved(id, false)
		return err
	}

	if err := o.cache.Put(ctx, story); err != nil {
		o.log.Error("failed to save story for offline", logger.String("story_id", id), logger.Error(err))
		o.view.ShowMessage("failed to save story", MessageError)
		o.view.SetStorySaved(id, false)
		return err
	}

	o.view.ShowMessage("story saved for offline reading", MessageSuccess)
	o.view.SetStorySaved(id, true)
	return nil
}

// DeleteFromOffline removes one story from the cache. A failure reverts
// the view's optimistic removed state.
func (o *Orchestrator) DeleteFromOffline(ctx context.Context, id string) error {
	if err := o.cache.Delete(ctx, id); err != nil {
		o.log.Error("failed to delete offline story", logger.String("story_id", id), logger.Error(err))
		o.view.ShowMessage("failed to delete story, try again", MessageError)
		o.view.SetStorySaved(id, true)
		return err
	}

	o.view.ShowMessage("story removed from offline storage", MessageSuccess)
	o.view.SetStorySaved(id, false)
	return nil
}

// collectSavedIDs reads which stories are already cached. A cache read
// failure here only disables the saved markers, it does not fail the load.
func (o *Orchestrator) collectSavedIDs(ctx context.Context) map[string]bool {
	savedIDs := make(map[string]bool)
	cached, err := o.cache.GetAll(ctx)
	if err != nil {
		o.log.Warn("failed to read saved story ids", logger.Error(err))
		return savedIDs
	}
	for _, s := range cached {
		savedIDs[s.ID] = true
	}
	return savedIDs
}

// reconcile writes a fresh remote listing back into the cache before it
// is served. Reconciliation failures never block serving fresh data; a
// total write failure yields a user message so the reader knows offline
// copies are stale. The message is returned rather than shown here so
// the caller can drop it when the load has been superseded.
func (o *Orchestrator) reconcile(ctx context.Context, stories []entities.Story) string {
	result, err := o.cache.PutMany(ctx, stories)
	switch {
	case err != nil:
		o.log.Error("failed to cache remote stories", logger.Error(err))
		return "offline copies could not be updated"
	case !result.AllWritten():
		o.log.Warn("cached remote stories partially",
			logger.Int("written", result.Written),
			logger.Int("attempted", result.Attempted))
	default:
		o.log.Debug("cached remote stories", logger.Int("written", result.Written))
	}
	return ""
}

// locateStory finds the story to save: current results, then the detail
// memo, then a remote detail fetch when online, then the cache when
// offline.
func (o *Orchestrator) locateStory(ctx context.Context, id string) (*entities.Story, error) {
	o.mu.Lock()
	for i := range o.stories {
		if o.stories[i].ID == id {
			story := o.stories[i]
			o.mu.Unlock()
			return &story, nil
		}
	}
	o.mu.Unlock()

	if v, ok := o.details.Get(id); ok {
		if story, ok := v.(*entities.Story); ok {
			return story, nil
		}
	}

	if o.probe.Online(ctx) {
		story, err := o.remote.GetStoryByID(ctx, id)
		if err != nil {
			var notFound *gateway.NotFoundError
			if errors.As(err, &notFound) {
				return nil, ErrStoryUnavailable
			}
			return nil, fmt.Errorf("failed to fetch story %s: %w", id, err)
		}
		o.details.Set(id, story, gocache.DefaultExpiration)
		return story, nil
	}

	story, err := o.cache.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			return nil, ErrStoryUnavailable
		}
		return nil, err
	}
	return story, nil
}
