package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adirahman/ceritakita-go/internal/credentials"
	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"github.com/adirahman/ceritakita-go/internal/logger"
)

// maxResponseBody caps how much of an API response is read into memory.
const maxResponseBody = 4 << 20

// Client is a stateless HTTP client for the remote story service.
// The credential provider is injected; an empty token downgrades
// submissions to the guest endpoint and lets listing proceed
// unauthenticated so the server decides whether to reject.
type Client struct {
	baseURL string
	httpc   *http.Client
	creds   credentials.Provider
	log     logger.Logger
}

// NewClient creates a Client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, creds credentials.Provider, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log,
	}
}

// envelope is the common wrapper on every API response.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type loginResponse struct {
	envelope
	LoginResult struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
		Token  string `json:"token"`
	} `json:"loginResult"`
}

type listResponse struct {
	envelope
	ListStory []entities.Story `json:"listStory"`
}

type detailResponse struct {
	envelope
	Story entities.Story `json:"story"`
}

// ListOptions controls story listing pagination and filtering.
type ListOptions struct {
	Page         int
	Size         int
	WithLocation bool
}

// NewStory is the payload for submitting a story.
type NewStory struct {
	Description string
	Photo       io.Reader
	PhotoName   string
	Lat         *float64
	Lon         *float64
}

// SubmitResult reports a successful submission and whether it went
// through the guest endpoint.
type SubmitResult struct {
	Message string
	AsGuest bool
}

// Register creates a new user account. Any failure is an AuthError.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out envelope
	if err := c.postJSON(ctx, "/register", "", body, &out); err != nil {
		return asAuthError(err)
	}
	return nil
}

// Login authenticates and returns the credentials to persist.
// Any failure is an AuthError.
func (c *Client) Login(ctx context.Context, email, password string) (*credentials.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var out loginResponse
	if err := c.postJSON(ctx, "/login", "", body, &out); err != nil {
		return nil, asAuthError(err)
	}
	return &credentials.Credentials{
		Token:  out.LoginResult.Token,
		UserID: out.LoginResult.UserID,
		Name:   out.LoginResult.Name,
	}, nil
}

// ListStories fetches a page of stories in server order. A missing token
// is logged and the request proceeds; the server rejects it if auth is
// required, and the caller handles that like any other API failure.
func (c *Client) ListStories(ctx context.Context, opts ListOptions) ([]entities.Story, error) {
	token := c.creds.Token()
	if token == "" {
		c.log.Warn("listing stories without a credential, server may reject")
	}

	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}
	location := "0"
	if opts.WithLocation {
		location = "1"
	}
	q.Set("location", location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stories?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}
	setBearer(req, token)

	var out listResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	stories := out.ListStory
	for i := range stories {
		stories[i].NormalizeLocation()
	}
	return stories, nil
}

// GetStoryByID fetches a single story. A 404 yields a NotFoundError.
func (c *Client) GetStoryByID(ctx context.Context, id string) (*entities.Story, error) {
	token := c.creds.Token()
	if token == "" {
		c.log.Warn("fetching story detail without a credential, server may reject")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stories/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build detail request: %w", err)
	}
	setBearer(req, token)

	var out detailResponse
	if err := c.do(req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{ID: id, Message: apiErr.Message}
		}
		return nil, err
	}
	out.Story.NormalizeLocation()
	return &out.Story, nil
}

// SubmitStory creates a new story. With no stored credential the request
// is routed to the guest endpoint and no bearer header is attached.
func (c *Client) SubmitStory(ctx context.Context, story NewStory) (SubmitResult, error) {
	token := c.creds.Token()
	path := "/stories"
	asGuest := token == ""
	if asGuest {
		path = "/stories/guest"
		c.log.Info("no credential stored, submitting story as guest")
	}

	body, contentType, err := encodeStoryForm(story)
	if err != nil {
		return SubmitResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if !asGuest {
		setBearer(req, token)
	}

	var out envelope
	if err := c.do(req, &out); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Message: out.Message, AsGuest: asGuest}, nil
}

// SubscribePush registers a web push subscription. Requires a credential.
func (c *Client) SubscribePush(ctx context.Context, sub *entities.PushSubscription) error {
	token := c.creds.Token()
	if token == "" {
		return &AuthError{Message: "login required to subscribe to notifications"}
	}
	body := map[string]any{
		"endpoint": sub.Endpoint,
		"keys": map[string]string{
			"p256dh": sub.P256dh,
			"auth":   sub.Auth,
		},
	}
	var out envelope
	return c.postJSON(ctx, "/notifications/subscribe", token, body, &out)
}

// UnsubscribePush removes a web push subscription. Requires a credential.
func (c *Client) UnsubscribePush(ctx context.Context, endpoint string) error {
	token := c.creds.Token()
	if token == "" {
		return &AuthError{Message: "login required to unsubscribe from notifications"}
	}

	payload, err := json.Marshal(map[string]string{"endpoint": endpoint})
	if err != nil {
		return fmt.Errorf("failed to encode unsubscribe payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/notifications/subscribe", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build unsubscribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, token)

	var out envelope
	return c.do(req, &out)
}

// postJSON sends a JSON POST and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, token)
	return c.do(req, out)
}

// do executes the request and normalizes every failure into the error
// taxonomy: non-2xx and API-flagged errors become AuthError (401/403) or
// APIError, carrying the server message when one is present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("request to %s failed: %v", req.URL.Path, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	var env envelope
	// Tolerate non-JSON error bodies; the envelope just stays empty.
	_ = json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Error {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed (HTTP %d)", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return &AuthError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
		}
	}
	return nil
}

// encodeStoryForm builds the multipart body for story submission.
func encodeStoryForm(story NewStory) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("description", story.Description); err != nil {
		return nil, "", fmt.Errorf("failed to write description field: %w", err)
	}

	name := story.PhotoName
	if name == "" {
		name = "photo.jpg"
	}
	part, err := w.CreateFormFile("photo", name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := io.Copy(part, story.Photo); err != nil {
		return nil, "", fmt.Errorf("failed to write photo data: %w", err)
	}

	// Coordinates are all-or-nothing; a half-set pair is dropped.
	if story.Lat != nil && story.Lon != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*story.Lat, 'f', -1, 64)); err != nil {
			return nil, "", fmt.Errorf("failed to write lat field: %w", err)
		}
		if err := w.WriteField("lon", strconv.FormatFloat(*story.Lon, 'f', -1, 64)); err != nil {
			return nil, "", fmt.Errorf("failed to write lon field: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// asAuthError reclassifies any gateway error as an AuthError, preserving
// the message and status. Used on the register/login endpoints where
// every rejection is an authentication failure.
func asAuthError(err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &AuthError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return &AuthError{Message: err.Error()}
}
