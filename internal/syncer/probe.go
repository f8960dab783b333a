package syncer

import (
	"context"
	"net/http"
	"time"
)

// probeTimeout bounds the connectivity check so an unreachable network
// fails the probe quickly instead of hanging a load.
const probeTimeout = 3 * time.Second

// HTTPProbe checks reachability of the remote service with a lightweight
// request against its base URL. Any HTTP response, including an error
// status, counts as online; only transport failures count as offline.
type HTTPProbe struct {
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe against the given URL.
func NewHTTPProbe(url string) *HTTPProbe {
	return &HTTPProbe{
		url: url,
		client: &http.Client{
			Timeout: probeTimeout,
			// The probe only cares that something answered.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Online implements ConnectivityProbe.
func (p *HTTPProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// StaticProbe is a ConnectivityProbe with a fixed answer, for tests and
// for forcing offline mode from the CLI.
type StaticProbe bool

// Online implements ConnectivityProbe.
func (p StaticProbe) Online(context.Context) bool { return bool(p) }
