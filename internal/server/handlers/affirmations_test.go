package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/daybreakhq/daybreak/internal/affirm"
	"github.com/daybreakhq/daybreak/internal/affirm/opener"
	"github.com/daybreakhq/daybreak/internal/affirm/prompt"
	"github.com/daybreakhq/daybreak/internal/llm/driver"
	"github.com/daybreakhq/daybreak/internal/ratelimit"
)

type stubDriver struct {
	resp *driver.Response
	err  error
}

func (d *stubDriver) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.resp, nil
}

func (d *stubDriver) Name() string { return "stub" }

// errorBody mirrors the envelope the error responder writes.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newTestHandler assembles a handler backed by the embedded prompt definitions,
// an in-memory rotator, and an in-memory limiter pinned to a morning clock.
func newTestHandler(t *testing.T, drv driver.Driver, limit int) *AffirmationsHandler {
	t.Helper()

	registry, err := prompt.DefaultRegistry()
	if err != nil {
		t.Fatalf("failed to load default prompts: %v", err)
	}

	rotator := opener.New(opener.NewMemoryStore(opener.DefaultHistoryTTL, 0), opener.DefaultHistoryCap, 0)
	service := affirm.NewService(registry, rotator, drv, affirm.Config{Model: "test-model"})
	service.Clock = func() time.Time {
		return time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	}

	limiter := ratelimit.NewMemoryLimiter(limit, time.Minute, 0)

	t.Cleanup(func() {
		service.Close()
		limiter.Close()
	})

	return NewAffirmationsHandler(service, limiter)
}

func postAffirmation(handler *AffirmationsHandler, remoteAddr, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/affirmations", reader)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAffirmationsHandlerGeneratesAffirmation(t *testing.T) {
	drv := &stubDriver{resp: &driver.Response{Model: "gen-1", Text: "You are ready for this day."}}
	handler := newTestHandler(t, drv, 10)

	rec := postAffirmation(handler, "203.0.113.7:49152", `{"tone":"confident","period":"morning","sentences":3}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AffirmationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Text != "You are ready for this day." {
		t.Fatalf("expected driver text, got %q", resp.Text)
	}
	if resp.Period != "morning" || resp.Intent != "motivate" {
		t.Fatalf("expected morning/motivate, got %s/%s", resp.Period, resp.Intent)
	}
	if resp.Tone != "confident" {
		t.Fatalf("expected confident tone, got %s", resp.Tone)
	}
	if resp.Model != "gen-1" {
		t.Fatalf("expected model gen-1, got %s", resp.Model)
	}
	if resp.Rate.Limit != 10 || resp.Rate.Remaining != 9 {
		t.Fatalf("expected rate 10/9, got %d/%d", resp.Rate.Limit, resp.Rate.Remaining)
	}
	if resp.Rate.ResetAt <= 0 {
		t.Fatalf("expected positive reset timestamp, got %d", resp.Rate.ResetAt)
	}

	if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Fatalf("expected X-RateLimit-Limit 10, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Fatalf("expected X-RateLimit-Remaining 9, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Reset"); got != strconv.FormatInt(resp.Rate.ResetAt, 10) {
		t.Fatalf("expected X-RateLimit-Reset to match body, got %q vs %d", got, resp.Rate.ResetAt)
	}
}

func TestAffirmationsHandlerDefaultsOnEmptyBody(t *testing.T) {
	drv := &stubDriver{resp: &driver.Response{Text: "Take the morning gently."}}
	handler := newTestHandler(t, drv, 10)

	rec := postAffirmation(handler, "203.0.113.7:49152", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AffirmationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// Clock is pinned to 07:00 UTC, so defaults resolve to a morning motivate.
	if resp.Period != "morning" || resp.Intent != "motivate" {
		t.Fatalf("expected morning/motivate defaults, got %s/%s", resp.Period, resp.Intent)
	}
	if resp.Tone != "gentle" {
		t.Fatalf("expected gentle default tone, got %s", resp.Tone)
	}
	if resp.Language != "en" {
		t.Fatalf("expected en default language, got %s", resp.Language)
	}
}

func TestAffirmationsHandlerRejectsMalformedJSON(t *testing.T) {
	drv := &stubDriver{resp: &driver.Response{Text: "unused"}}
	handler := newTestHandler(t, drv, 10)

	rec := postAffirmation(handler, "203.0.113.7:49152", `{"tone": nope}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var resp errorBody
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT error code, got %s", resp.Error.Code)
	}

	// A rejected body never reaches the limiter, so the next request still
	// opens a fresh window.
	rec = postAffirmation(handler, "203.0.113.7:49152", `{"tone":"gentle"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 after malformed request, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Fatalf("expected full window after malformed request, got remaining %q", got)
	}
}

func TestAffirmationsHandlerRejectsTrailingData(t *testing.T) {
	drv := &stubDriver{resp: &driver.Response{Text: "unused"}}
	handler := newTestHandler(t, drv, 10)

	// Anything after the first JSON value makes the body malformed, whether
	// it is garbage or a second concatenated value.
	for _, body := range []string{`{}junk`, `{"tone":"gentle"} {"tone":"playful"}`} {
		rec := postAffirmation(handler, "203.0.113.7:49152", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected status 400, got %d", body, rec.Code)
		}

		var resp errorBody
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("body %q: failed to decode error response: %v", body, err)
		}
		if resp.Error.Code != "INVALID_INPUT" {
			t.Fatalf("body %q: expected INVALID_INPUT error code, got %s", body, resp.Error.Code)
		}
	}

	// Trailing whitespace after a complete value stays valid.
	rec := postAffirmation(handler, "203.0.113.7:49152", "{\"tone\":\"gentle\"}\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for trailing newline, got %d", rec.Code)
	}
}

func TestAffirmationsHandlerEnforcesRateLimit(t *testing.T) {
	drv := &stubDriver{resp: &driver.Response{Text: "Again."}}
	handler := newTestHandler(t, drv, 2)

	for i := 0; i < 2; i++ {
		rec := postAffirmation(handler, "198.51.100.4:1000", `{}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}

	rec := postAffirmation(handler, "198.51.100.4:1000", `{}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}

	var resp errorBody
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED error code, got %s", resp.Error.Code)
	}

	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining 0, got %q", got)
	}
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Fatalf("expected positive integer Retry-After, got %q", rec.Header().Get("Retry-After"))
	}

	// A different client is unaffected.
	rec = postAffirmation(handler, "198.51.100.5:1000", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for second client, got %d", rec.Code)
	}
}

func TestAffirmationsHandlerDeniedRequestsDoNotConsume(t *testing.T) {
	drv := &stubDriver{resp: &driver.Response{Text: "Still here."}}

	registry, err := prompt.DefaultRegistry()
	if err != nil {
		t.Fatalf("failed to load default prompts: %v", err)
	}
	rotator := opener.New(opener.NewMemoryStore(opener.DefaultHistoryTTL, 0), opener.DefaultHistoryCap, 0)
	service := affirm.NewService(registry, rotator, drv, affirm.Config{Model: "test-model"})
	service.Clock = func() time.Time {
		return time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	}

	current := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewMemoryLimiter(1, time.Minute, 0)
	limiter.Clock = func() time.Time { return current }
	t.Cleanup(func() {
		service.Close()
		limiter.Close()
	})

	handler := NewAffirmationsHandler(service, limiter)

	if rec := postAffirmation(handler, "198.51.100.4:1000", `{}`); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	for i := 0; i < 5; i++ {
		if rec := postAffirmation(handler, "198.51.100.4:1000", `{}`); rec.Code != http.StatusTooManyRequests {
			t.Fatalf("denied request %d: expected status 429, got %d", i+1, rec.Code)
		}
	}

	// Advancing past the window reopens it; the burst of denials above must
	// not have extended or consumed it.
	current = current.Add(time.Minute + time.Second)
	rec := postAffirmation(handler, "198.51.100.4:1000", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 after window reset, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0 in fresh single-slot window, got %q", got)
	}
}

func TestAffirmationsHandlerMapsProviderErrors(t *testing.T) {
	drv := &stubDriver{err: &driver.ProviderError{Provider: "openai", StatusCode: 500, Message: "upstream exploded"}}
	handler := newTestHandler(t, drv, 10)

	rec := postAffirmation(handler, "203.0.113.7:49152", `{}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}

	var resp errorBody
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "EXTERNAL_SERVICE_ERROR" {
		t.Fatalf("expected EXTERNAL_SERVICE_ERROR error code, got %s", resp.Error.Code)
	}
}

func TestAffirmationsHandlerMapsTimeouts(t *testing.T) {
	drv := &stubDriver{err: context.DeadlineExceeded}
	handler := newTestHandler(t, drv, 10)

	rec := postAffirmation(handler, "203.0.113.7:49152", `{}`)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected status 504, got %d", rec.Code)
	}

	var resp errorBody
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "TIMEOUT" {
		t.Fatalf("expected TIMEOUT error code, got %s", resp.Error.Code)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:49152", "203.0.113.7"},
		{"203.0.113.7", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"", affirm.UnknownClient},
		{"   ", affirm.UnknownClient},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/v1/affirmations", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := ClientKey(req); got != tt.want {
			t.Fatalf("ClientKey(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
