package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daybreakhq/daybreak/internal/affirm"
	"github.com/daybreakhq/daybreak/internal/affirm/prompt"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestFormatters(t *testing.T) {
	resp := &affirm.Response{
		Text:     "Morning light is on your side today.",
		Period:   "morning",
		Intent:   "motivate",
		Tone:     "gentle",
		Language: "en",
		Opener:   "Morning light",
		Model:    "gpt-4o-mini",
	}

	tableRendered, err := NewFormatter(FormatTable).FormatAffirmation(resp)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "FIELD")
	require.Contains(t, tableRendered, "morning")
	require.Contains(t, tableRendered, "Morning light is on your side today.")

	jsonRendered, err := NewFormatter(FormatJSON).FormatAffirmation(resp)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"period\": \"morning\"")
	require.Contains(t, jsonRendered, "\"intent\": \"motivate\"")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatAffirmation(resp)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(markdownRendered, "> Morning light"))
	require.Contains(t, markdownRendered, "| Field | Value |")
	require.Contains(t, markdownRendered, "| intent | motivate |")
}

func TestFormattersSkipEmptyOptionalFields(t *testing.T) {
	resp := &affirm.Response{
		Text:     "Rest is productive too.",
		Period:   "night",
		Intent:   "soothe",
		Tone:     "calm",
		Language: "en",
	}

	tableRendered, err := NewFormatter(FormatTable).FormatAffirmation(resp)
	require.NoError(t, err)
	require.NotContains(t, tableRendered, "opener")
	require.NotContains(t, tableRendered, "model")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatAffirmation(resp)
	require.NoError(t, err)
	require.NotContains(t, markdownRendered, "| opener |")
}

func TestMarkdownEscaping(t *testing.T) {
	resp := &affirm.Response{
		Text:     "plain",
		Period:   "morning",
		Intent:   "motivate",
		Tone:     "gentle",
		Language: "en",
		Opener:   "pipe|test",
	}

	rendered, err := NewFormatter(FormatMarkdown).FormatAffirmation(resp)
	require.NoError(t, err)
	require.Contains(t, rendered, "pipe\\|test")
}

func TestFormatBankListJSON(t *testing.T) {
	banks := []Bank{
		{Slug: "morning-motivate", Strategy: "fixed", Count: 14},
	}

	rendered, err := FormatBankList(FormatJSON, banks)
	require.NoError(t, err)
	require.Contains(t, rendered, "\"slug\": \"morning-motivate\"")
	require.Contains(t, rendered, "\"count\": 14")
}

func TestFormatBankListTable(t *testing.T) {
	banks := []Bank{
		{Slug: "morning-motivate", Strategy: "fixed", Count: 14},
		{Slug: "night-soothe", Strategy: "theme", Count: 12},
	}

	rendered, err := FormatBankList(FormatTable, banks)
	require.NoError(t, err)
	require.Contains(t, rendered, "SLUG")
	require.Contains(t, rendered, "morning-motivate")
	require.Contains(t, rendered, "26")
}

func TestFormatBankListMarkdown(t *testing.T) {
	banks := []Bank{
		{Slug: "pipe|slug", Strategy: "fixed", Count: 3},
	}

	rendered, err := FormatBankList(FormatMarkdown, banks)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rendered, "| Slug |"))
	require.Contains(t, rendered, "pipe\\|slug")
}

func TestFormatBank(t *testing.T) {
	bank := Bank{
		Slug:     "evening-reflect",
		Strategy: "fixed",
		Count:    2,
		Openers:  []string{"As the day settles", "Look back kindly"},
	}

	tableRendered, err := FormatBank(FormatTable, bank)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "As the day settles")
	require.Contains(t, tableRendered, "2 openers, strategy fixed")

	markdownRendered, err := FormatBank(FormatMarkdown, bank)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "## evening-reflect (fixed)")
	require.Contains(t, markdownRendered, "- Look back kindly")

	jsonRendered, err := FormatBank(FormatJSON, bank)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"openers\"")
}

func TestBankFromPrompt(t *testing.T) {
	p := &prompt.Prompt{
		Config: prompt.Config{
			Slug:    "morning-motivate",
			Name:    "Morning Motivation",
			Openers: []string{"First light", "A fresh page"},
		},
	}

	bank := BankFromPrompt(p, false)
	require.Equal(t, "morning-motivate", bank.Slug)
	require.Equal(t, prompt.StrategyFixed, bank.Strategy)
	require.Equal(t, 2, bank.Count)
	require.Empty(t, bank.Openers)

	verbose := BankFromPrompt(p, true)
	require.Equal(t, []string{"First light", "A fresh page"}, verbose.Openers)
}

func TestNilResponse(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatJSON, FormatMarkdown} {
		rendered, err := NewFormatter(format).FormatAffirmation(nil)
		require.NoError(t, err)
		require.Empty(t, rendered)
	}
}
