package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"github.com/adirahman/ceritakita-go/internal/datastore/repository"
	"github.com/adirahman/ceritakita-go/internal/gateway"
	"github.com/adirahman/ceritakita-go/internal/logger"
	"github.com/adirahman/ceritakita-go/internal/syncer"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server exposes the story flows over a local HTTP interface so a
// browser can act as the presentation boundary.
type Server struct {
	echo     *echo.Echo
	remote   syncer.Remote
	cache    repository.StoryRepository
	probe    syncer.ConnectivityProbe
	listOpts gateway.ListOptions
	vapidKey string
	log      logger.Logger
}

// NewServer creates the local HTTP server. vapidKey is handed to the
// browser so it can subscribe to push notifications against the same
// application server the remote API uses.
func NewServer(remote syncer.Remote, cache repository.StoryRepository, probe syncer.ConnectivityProbe, listOpts gateway.ListOptions, vapidKey string, log logger.Logger) *Server {
	s := &Server{
		echo:     echo.New(),
		remote:   remote,
		cache:    cache,
		probe:    probe,
		listOpts: listOpts,
		vapidKey: vapidKey,
		log:      log,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(s.requestLogger())
	s.registerRoutes()
	return s
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/stories", s.handleListStories)
	api.GET("/stories/:id", s.handleGetStory)
	api.GET("/saved", s.handleListSaved)
	api.POST("/stories/:id/save", s.handleSaveStory)
	api.DELETE("/stories/:id/save", s.handleDeleteStory)
	api.GET("/push/key", s.handlePushKey)

	s.registerPWARoutes()
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status))
			return nil
		},
	})
}

// collectingView implements syncer.View for one request, buffering what
// the orchestrator renders so it can be returned as a JSON response.
type collectingView struct {
	mu       sync.Mutex
	stories  []entities.Story
	savedIDs map[string]bool
	errMsg   string
	messages []viewMessage
}

type viewMessage struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

func (v *collectingView) RenderStories(stories []entities.Story, savedIDs map[string]bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stories = stories
	v.savedIDs = savedIDs
}

func (v *collectingView) RenderError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errMsg = message
}

func (v *collectingView) ShowMessage(message string, kind syncer.MessageKind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, viewMessage{Text: message, Kind: string(kind)})
}

func (v *collectingView) SetStorySaved(string, bool) {}

// listingResponse mirrors the remote API envelope shape so both the
// remote service and the local surface read the same way.
type listingResponse struct {
	Error    bool             `json:"error"`
	Message  string           `json:"message,omitempty"`
	Stories  []entities.Story `json:"listStory"`
	SavedIDs []string         `json:"savedIds"`
	Messages []viewMessage    `json:"messages,omitempty"`
}

// newOrchestrator builds a per-request orchestrator. Each HTTP request is
// its own load invocation, so no view state is shared between requests.
func (s *Server) newOrchestrator(view syncer.View) *syncer.Orchestrator {
	return syncer.New(s.remote, s.cache, s.probe, view, s.listOpts, s.log)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePushKey(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"vapidPublicKey": s.vapidKey})
}

func (s *Server) handleListStories(c echo.Context) error {
	view := &collectingView{}
	err := s.newOrchestrator(view).LoadStories(c.Request().Context())
	return s.respondListing(c, view, err)
}

func (s *Server) handleListSaved(c echo.Context) error {
	view := &collectingView{}
	err := s.newOrchestrator(view).LoadSavedStories(c.Request().Context())
	return s.respondListing(c, view, err)
}

func (s *Server) respondListing(c echo.Context, view *collectingView, err error) error {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, syncer.ErrNothingCached) {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, listingResponse{Error: true, Message: view.errMsg})
	}

	savedIDs := make([]string, 0, len(view.savedIDs))
	for id, saved := range view.savedIDs {
		if saved {
			savedIDs = append(savedIDs, id)
		}
	}
	stories := view.stories
	if stories == nil {
		stories = []entities.Story{}
	}
	return c.JSON(http.StatusOK, listingResponse{
		Stories:  stories,
		SavedIDs: savedIDs,
		Messages: view.messages,
	})
}

// handleGetStory serves one story detail: from the remote service when
// reachable, from the offline cache otherwise.
func (s *Server) handleGetStory(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var story *entities.Story
	var err error
	if s.probe.Online(ctx) {
		story, err = s.remote.GetStoryByID(ctx, id)
	} else {
		story, err = s.cache.GetByID(ctx, id)
	}
	if err != nil {
		status := http.StatusInternalServerError
		var notFound *gateway.NotFoundError
		if errors.As(err, &notFound) || errors.Is(err, repository.ErrStoryNotFound) {
			status = http.StatusNotFound
		}
		return c.JSON(status, map[string]any{"error": true, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"error": false, "story": story})
}

func (s *Server) handleSaveStory(c echo.Context) error {
	id := c.Param("id")
	view := &collectingView{}
	if err := s.newOrchestrator(view).SaveForOffline(c.Request().Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, syncer.ErrStoryUnavailable) {
			status = http.StatusNotFound
		}
		return c.JSON(status, map[string]any{"error": true, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"error": false, "message": "story saved for offline reading"})
}

func (s *Server) handleDeleteStory(c echo.Context) error {
	id := c.Param("id")
	view := &collectingView{}
	if err := s.newOrchestrator(view).DeleteFromOffline(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": true, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"error": false, "message": "story removed from offline storage"})
}
