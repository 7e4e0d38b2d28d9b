// Package affirm generates short, styled affirmation texts for a day period.
package affirm

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/daybreakhq/daybreak/internal/affirm/opener"
	"github.com/daybreakhq/daybreak/internal/affirm/prompt"
	"github.com/daybreakhq/daybreak/internal/llm/driver"
	"github.com/daybreakhq/daybreak/internal/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxTimeout     = 2 * time.Minute
)

// Config tunes generation.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Service coordinates prompt selection, opener rotation, and driver execution.
// It is the single generation path shared by the HTTP handler and the CLI.
type Service struct {
	registry prompt.Registry
	rotator  *opener.Rotator
	driver   driver.Driver
	cfg      Config

	// Clock is injectable for tests. Defaults to time.Now in UTC.
	Clock func() time.Time
}

// NewService wires the generation dependencies together.
func NewService(registry prompt.Registry, rotator *opener.Rotator, drv driver.Driver, cfg Config) *Service {
	return &Service{
		registry: registry,
		rotator:  rotator,
		driver:   drv,
		cfg:      cfg,
	}
}

// Generate produces one affirmation. Inputs are clamped, never rejected; the
// only failure paths are prompt lookup and the upstream call.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	if s == nil || s.driver == nil {
		return nil, errors.New("affirm driver not configured")
	}
	if s.registry == nil {
		return nil, errors.New("affirm prompt registry not configured")
	}

	req = req.Normalize(s.now())
	intent := IntentFor(req.Period)

	def, err := s.registry.Get(intent)
	if err != nil {
		return nil, err
	}

	opening := ""
	if def.Config.UsesOpener() && s.rotator != nil {
		opening = s.rotator.Pick(ctx, intent, req.ClientKey, def.Config.Openers)
	}

	vars := map[string]string{
		"tone":        req.Tone,
		"period":      req.Period,
		"language":    req.Language,
		"sentences":   strconv.Itoa(req.Sentences),
		"opener":      opening,
		"style_rules": styleRulesBlock(def.Config.StyleRules),
	}

	system, user, err := renderTemplates(def, vars)
	if err != nil {
		return nil, err
	}

	driverReq := &driver.Request{
		Model: s.cfg.Model,
		Messages: []driver.Message{
			{Role: driver.RoleSystem, Content: system},
			{Role: driver.RoleUser, Content: user},
		},
	}
	if s.cfg.Temperature > 0 {
		temperature := s.cfg.Temperature
		driverReq.Temperature = &temperature
	}
	if s.cfg.MaxTokens > 0 {
		maxTokens := s.cfg.MaxTokens
		driverReq.MaxTokens = &maxTokens
	}

	duration := s.cfg.Timeout
	if duration <= 0 {
		duration = defaultTimeout
	}
	if duration > maxTimeout {
		duration = maxTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	start := time.Now()
	resp, err := s.driver.Complete(ctx, driverReq)
	elapsed := time.Since(start)
	metrics.RecordCompletion(s.driver.Name(), err == nil, elapsed)
	if err != nil {
		metrics.RecordAffirmation(intent, false, elapsed)
		return nil, err
	}

	if resp.Usage != nil {
		metrics.RecordCompletionTokens(s.driver.Name(), "prompt", resp.Usage.PromptTokens)
		metrics.RecordCompletionTokens(s.driver.Name(), "completion", resp.Usage.CompletionTokens)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		metrics.RecordAffirmation(intent, false, elapsed)
		return nil, &driver.ProviderError{Provider: s.driver.Name(), Message: "empty response content"}
	}

	metrics.RecordAffirmation(intent, true, elapsed)

	model := resp.Model
	if model == "" {
		model = s.cfg.Model
	}

	return &Response{
		Text:     text,
		Period:   req.Period,
		Intent:   intent,
		Tone:     req.Tone,
		Language: req.Language,
		Opener:   opening,
		Model:    model,
	}, nil
}

// Close releases the rotator's store.
func (s *Service) Close() {
	if s != nil && s.rotator != nil {
		s.rotator.Close()
	}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}
