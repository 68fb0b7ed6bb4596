package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/coursebot/core/telegram/netutil"
)

// NewHTTPClient returns the client used for Bot API calls. Requests that
// fail with a dial error or timeout are retried up to retries times with a
// linear backoff; uploads whose body cannot be replayed are not.
func NewHTTPClient(retries int) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	var rt http.RoundTripper = base
	if retries > 0 {
		rt = &retrying{next: base, retries: retries, backoff: 2 * time.Second}
	}
	return &http.Client{Timeout: 30 * time.Second, Transport: rt}
}

type retrying struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retrying) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	for attempt := 1; attempt <= t.retries && err != nil && netutil.ShouldRetry(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			break
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(t.backoff * time.Duration(attempt)):
		}

		again := req.Clone(req.Context())
		if req.GetBody != nil {
			if again.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
		resp, err = t.next.RoundTrip(again)
	}
	return resp, err
}
