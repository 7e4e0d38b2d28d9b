package affirm

import (
	"regexp"
	"strings"
	"time"
)

// Tones the service accepts. Unknown tones clamp to ToneGentle.
const (
	ToneGentle    = "gentle"
	ToneConfident = "confident"
	TonePlayful   = "playful"
	TonePoetic    = "poetic"
)

// Day periods. An unknown period clamps to the one for the current UTC hour.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
	PeriodNight     = "night"
)

// UnknownClient is the key used when no caller identity can be derived.
const UnknownClient = "unknown"

// Bounds and defaults for request fields.
const (
	DefaultLanguage  = "en"
	DefaultSentences = 2
	MinSentences     = 1
	MaxSentences     = 4
)

var languagePattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)

// Request describes one affirmation to generate. Every field is optional:
// unknown or out-of-range values clamp to defaults instead of failing.
type Request struct {
	Tone      string `json:"tone,omitempty"`
	Period    string `json:"period,omitempty"`
	Language  string `json:"language,omitempty"`
	Sentences int    `json:"sentences,omitempty"`

	// ClientKey identifies the caller for opener rotation. It is not part of
	// the request body; the HTTP handler derives it from the remote address.
	ClientKey string `json:"-"`
}

// Response is one generated affirmation plus the inputs that shaped it.
type Response struct {
	Text     string `json:"text"`
	Period   string `json:"period"`
	Intent   string `json:"intent"`
	Tone     string `json:"tone"`
	Language string `json:"language"`
	Opener   string `json:"opener,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Normalize returns a copy with every field clamped to a supported value.
// The time decides the default period when none is given.
func (r Request) Normalize(now time.Time) Request {
	r.Tone = normalizeTone(r.Tone)
	r.Period = normalizePeriod(r.Period, now)
	r.Language = normalizeLanguage(r.Language)
	r.Sentences = clampSentences(r.Sentences)
	if strings.TrimSpace(r.ClientKey) == "" {
		r.ClientKey = UnknownClient
	}
	return r
}

func normalizeTone(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ToneConfident:
		return ToneConfident
	case TonePlayful:
		return TonePlayful
	case TonePoetic:
		return TonePoetic
	default:
		return ToneGentle
	}
}

func normalizePeriod(raw string, now time.Time) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case PeriodMorning:
		return PeriodMorning
	case PeriodAfternoon:
		return PeriodAfternoon
	case PeriodEvening:
		return PeriodEvening
	case PeriodNight:
		return PeriodNight
	default:
		return periodForHour(now.UTC().Hour())
	}
}

// periodForHour maps a UTC hour to its day period: 05-11 morning, 12-16
// afternoon, 17-21 evening, everything else night.
func periodForHour(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return PeriodMorning
	case hour >= 12 && hour <= 16:
		return PeriodAfternoon
	case hour >= 17 && hour <= 21:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

func normalizeLanguage(raw string) string {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if languagePattern.MatchString(lang) {
		return lang
	}
	return DefaultLanguage
}

func clampSentences(n int) int {
	if n == 0 {
		return DefaultSentences
	}
	if n < MinSentences {
		return MinSentences
	}
	if n > MaxSentences {
		return MaxSentences
	}
	return n
}
