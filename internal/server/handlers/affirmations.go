package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/daybreakhq/daybreak/internal/affirm"
	apperrors "github.com/daybreakhq/daybreak/internal/errors"
	"github.com/daybreakhq/daybreak/internal/llm/driver"
	"github.com/daybreakhq/daybreak/internal/metrics"
	"github.com/daybreakhq/daybreak/internal/ratelimit"
)

// maxAffirmationBody bounds the request body; the payload is four small fields.
const maxAffirmationBody = 1 << 16

// AffirmationsHandler serves POST /v1/affirmations.
type AffirmationsHandler struct {
	service *affirm.Service
	limiter ratelimit.Limiter
}

// NewAffirmationsHandler wires the generation service and rate limiter.
func NewAffirmationsHandler(service *affirm.Service, limiter ratelimit.Limiter) *AffirmationsHandler {
	return &AffirmationsHandler{service: service, limiter: limiter}
}

// RateInfo reports the caller's rate-limit window state.
type RateInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
}

// AffirmationResponse is the success body: the generated affirmation plus
// rate metadata.
type AffirmationResponse struct {
	affirm.Response
	Rate RateInfo `json:"rate"`
}

// ServeHTTP generates one affirmation. Field values clamp rather than fail;
// malformed JSON is the only client error.
func (h *AffirmationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.limiter == nil {
		respondWithError(w, r, apperrors.NewInternalError("Affirmation service not configured"))
		return
	}

	req, err := decodeAffirmationRequest(w, r)
	if err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("Request body must be valid JSON"))
		return
	}
	req.ClientKey = ClientKey(r)

	result := h.limiter.Check(r.Context(), req.ClientKey)
	setRateLimitHeaders(w, result)

	if !result.Allowed {
		metrics.RecordRateLimited("affirmations")
		if result.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
		}
		respondWithError(w, r, apperrors.NewRateLimitedError("Rate limit exceeded for this client; retry after the window resets"))
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		respondWithError(w, r, mapGenerateError(r.Context(), err))
		return
	}

	payload := AffirmationResponse{
		Response: *resp,
		Rate: RateInfo{
			Limit:     result.Limit,
			Remaining: result.Remaining,
			ResetAt:   result.ResetAt.Unix(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeAffirmationRequest parses the optional JSON body. An empty body is a
// request for all defaults.
func decodeAffirmationRequest(w http.ResponseWriter, r *http.Request) (affirm.Request, error) {
	var req affirm.Request
	if r.Body == nil {
		return req, nil
	}

	body := http.MaxBytesReader(w, r.Body, maxAffirmationBody)
	defer body.Close() // nolint:errcheck // best-effort cleanup

	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return affirm.Request{}, err
	}
	// A body holding anything beyond the first JSON value is malformed.
	if decoder.More() {
		return affirm.Request{}, errors.New("unexpected data after JSON body")
	}
	return req, nil
}

// ClientKey derives the rate-limit and rotation key for a request. RealIP
// middleware has already rewritten RemoteAddr from forwarding headers when
// present.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return affirm.UnknownClient
	}
	return host
}

func setRateLimitHeaders(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func mapGenerateError(ctx context.Context, err error) error {
	var provErr *driver.ProviderError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.WrapTimeout(ctx, err, "Affirmation generation timed out")
	case errors.As(err, &provErr):
		return apperrors.WrapExternalService(ctx, err, "Affirmation provider request failed")
	default:
		return apperrors.WrapInternal(ctx, err, "Affirmation generation failed")
	}
}
