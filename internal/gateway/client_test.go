package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/adirahman/ceritakita-go/internal/credentials"
	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"github.com/adirahman/ceritakita-go/internal/logger"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://stories.example.test/v1"

// newTestClient creates a client with httpmock intercepting its transport.
func newTestClient(t *testing.T, token string) *Client {
	t.Helper()
	c := NewClient(testBaseURL, 5*time.Second, credentials.StaticProvider(token), logger.NewNop())
	httpmock.ActivateNonDefault(c.httpc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, "")

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/login",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"error":   false,
			"message": "success",
			"loginResult": map[string]string{
				"userId": "user-1",
				"name":   "Ani",
				"token":  "jwt-token",
			},
		}))

	creds, err := c.Login(context.Background(), "ani@example.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", creds.Token)
	assert.Equal(t, "user-1", creds.UserID)
	assert.Equal(t, "Ani", creds.Name)
}

func TestClient_LoginRejected(t *testing.T) {
	c := newTestClient(t, "")

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/login",
		httpmock.NewJsonResponderOrPanic(401, map[string]any{
			"error":   true,
			"message": "Invalid password",
		}))

	_, err := c.Login(context.Background(), "ani@example.test", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid password", authErr.Message)
	assert.Equal(t, 401, authErr.StatusCode)
}

func TestClient_RegisterFailureIsAuthError(t *testing.T) {
	c := newTestClient(t, "")

	// HTTP 200 but the API flags the error in the envelope.
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/register",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"error":   true,
			"message": "Email is already taken",
		}))

	err := c.Register(context.Background(), "Ani", "ani@example.test", "secret")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Email is already taken", authErr.Message)
}

func TestClient_ListStories(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	var gotAuth, gotQuery string
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/stories",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			gotQuery = req.URL.RawQuery
			return httpmock.NewJsonResponse(200, map[string]any{
				"error":   false,
				"message": "success",
				"listStory": []map[string]any{
					{"id": "s2", "name": "Budi", "description": "second", "photoUrl": "https://p/2.jpg", "createdAt": "2024-05-01T10:00:00Z"},
					{"id": "s1", "name": "Ani", "description": "first", "photoUrl": "https://p/1.jpg", "createdAt": "2024-05-02T10:00:00Z", "lat": -6.2, "lon": 106.8},
				},
			})
		})

	stories, err := c.ListStories(context.Background(), ListOptions{Page: 2, Size: 5, WithLocation: true})
	require.NoError(t, err)

	assert.Equal(t, "Bearer jwt-token", gotAuth)
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "size=5")
	assert.Contains(t, gotQuery, "location=1")

	// Server order is preserved: no client-side resort.
	require.Len(t, stories, 2)
	assert.Equal(t, "s2", stories[0].ID)
	assert.Equal(t, "s1", stories[1].ID)
	assert.True(t, stories[1].HasLocation())
	assert.False(t, stories[0].HasLocation())
}

func TestClient_ListStoriesWithoutToken(t *testing.T) {
	c := newTestClient(t, "")

	var sawAuthHeader bool
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/stories",
		func(req *http.Request) (*http.Response, error) {
			_, sawAuthHeader = req.Header["Authorization"]
			return httpmock.NewJsonResponse(401, map[string]any{
				"error":   true,
				"message": "Missing authentication",
			})
		})

	// The request proceeds without a token; the server's rejection is
	// surfaced as an error, not short-circuited client-side.
	_, err := c.ListStories(context.Background(), ListOptions{})
	require.Error(t, err)
	assert.False(t, sawAuthHeader, "no bearer header without a token")
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "the request was actually attempted")
}

func TestClient_ListStoriesServerError(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/stories",
		httpmock.NewStringResponder(500, "internal error, not json"))

	_, err := c.ListStories(context.Background(), ListOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "HTTP 500", "non-JSON bodies fall back to a status message")
}

func TestClient_GetStoryByID(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/stories/s1",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"error":   false,
			"message": "success",
			"story": map[string]any{
				"id": "s1", "name": "Ani", "description": "first",
				"photoUrl": "https://p/1.jpg", "createdAt": "2024-05-02T10:00:00Z",
			},
		}))

	story, err := c.GetStoryByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", story.ID)
	assert.Equal(t, "Ani", story.Name)
}

func TestClient_GetStoryByIDNotFound(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/stories/missing",
		httpmock.NewJsonResponderOrPanic(404, map[string]any{
			"error":   true,
			"message": "Story not found",
		}))

	_, err := c.GetStoryByID(context.Background(), "missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
	assert.Equal(t, "Story not found", notFound.Message)
}

func TestClient_SubmitStoryAuthenticated(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	var gotAuth, gotDescription, gotLat, gotLon, gotPhotoName string
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/stories",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			require.NoError(t, req.ParseMultipartForm(1<<20))
			gotDescription = req.FormValue("description")
			gotLat = req.FormValue("lat")
			gotLon = req.FormValue("lon")
			_, header, err := req.FormFile("photo")
			require.NoError(t, err)
			gotPhotoName = header.Filename
			return httpmock.NewJsonResponse(201, map[string]any{"error": false, "message": "success"})
		})

	lat, lon := -6.2, 106.8
	result, err := c.SubmitStory(context.Background(), NewStory{
		Description: "our trip",
		Photo:       strings.NewReader("jpeg-bytes"),
		PhotoName:   "trip.jpg",
		Lat:         &lat,
		Lon:         &lon,
	})
	require.NoError(t, err)

	assert.False(t, result.AsGuest)
	assert.Equal(t, "success", result.Message)
	assert.Equal(t, "Bearer jwt-token", gotAuth)
	assert.Equal(t, "our trip", gotDescription)
	assert.Equal(t, "-6.2", gotLat)
	assert.Equal(t, "106.8", gotLon)
	assert.Equal(t, "trip.jpg", gotPhotoName)
}

func TestClient_SubmitStoryGuestRouting(t *testing.T) {
	c := newTestClient(t, "")

	var sawAuthHeader bool
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/stories/guest",
		func(req *http.Request) (*http.Response, error) {
			_, sawAuthHeader = req.Header["Authorization"]
			return httpmock.NewJsonResponse(201, map[string]any{"error": false, "message": "success"})
		})

	result, err := c.SubmitStory(context.Background(), NewStory{
		Description: "guest trip",
		Photo:       strings.NewReader("jpeg-bytes"),
	})
	require.NoError(t, err)

	assert.True(t, result.AsGuest)
	assert.False(t, sawAuthHeader, "guest submissions never carry a bearer header")
	info := httpmock.GetCallCountInfo()
	assert.Zero(t, info["POST "+testBaseURL+"/stories"], "the authenticated endpoint is never hit")
}

func TestClient_SubmitStoryDropsHalfSetLocation(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/stories",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Empty(t, req.FormValue("lat"))
			assert.Empty(t, req.FormValue("lon"))
			return httpmock.NewJsonResponse(201, map[string]any{"error": false, "message": "success"})
		})

	lat := -6.2
	_, err := c.SubmitStory(context.Background(), NewStory{
		Description: "no lon",
		Photo:       strings.NewReader("jpeg-bytes"),
		Lat:         &lat,
	})
	require.NoError(t, err)
}

func TestClient_SubscribePushRequiresToken(t *testing.T) {
	c := newTestClient(t, "")

	err := c.SubscribePush(context.Background(), &entities.PushSubscription{Endpoint: "https://push/ep"})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, httpmock.GetTotalCallCount(), "no request without a credential")
}

func TestClient_SubscribePush(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	var gotBody map[string]any
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/notifications/subscribe",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
			return httpmock.NewJsonResponse(201, map[string]any{"error": false, "message": "success"})
		})

	err := c.SubscribePush(context.Background(), &entities.PushSubscription{
		Endpoint: "https://push.example.test/ep-1",
		P256dh:   "pubkey",
		Auth:     "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://push.example.test/ep-1", gotBody["endpoint"])
	keys, ok := gotBody["keys"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pubkey", keys["p256dh"])
	assert.Equal(t, "secret", keys["auth"])
}

func TestClient_UnsubscribePush(t *testing.T) {
	c := newTestClient(t, "jwt-token")

	var gotBody map[string]string
	httpmock.RegisterResponder(http.MethodDelete, testBaseURL+"/notifications/subscribe",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
			return httpmock.NewJsonResponse(200, map[string]any{"error": false, "message": "success"})
		})

	require.NoError(t, c.UnsubscribePush(context.Background(), "https://push.example.test/ep-1"))
	assert.Equal(t, "https://push.example.test/ep-1", gotBody["endpoint"])
}
