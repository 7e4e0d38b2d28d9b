package affirm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daybreakhq/daybreak/internal/affirm/prompt"
)

func TestRenderTemplatesSubstitutesVars(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{
		Slug:           "test",
		SystemTemplate: "Tone: {{tone}}. Sentences: {{sentences}}.\n{{style_rules}}",
		UserTemplate:   "Write it in {{language}}.",
	}}

	vars := map[string]string{
		"tone":        "gentle",
		"sentences":   "2",
		"language":    "en",
		"style_rules": "- rule one\n- rule two",
	}

	system, user, err := renderTemplates(def, vars)
	require.NoError(t, err)
	require.Equal(t, "Tone: gentle. Sentences: 2.\n- rule one\n- rule two", system)
	require.Equal(t, "Write it in en.", user)
}

func TestRenderTemplatesConditionalOpener(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{
		Slug:           "test",
		SystemTemplate: "{{#if opener}}Begin with: {{opener}}{{else}}Open freely.{{/if}}",
	}}

	system, _, err := renderTemplates(def, map[string]string{"opener": "The day is yours."})
	require.NoError(t, err)
	require.Equal(t, "Begin with: The day is yours.", system)

	system, _, err = renderTemplates(def, map[string]string{"opener": ""})
	require.NoError(t, err)
	require.Equal(t, "Open freely.", system)
}

func TestRenderTemplatesDefaultUserTemplate(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{Slug: "test", SystemTemplate: "sys"}}

	_, user, err := renderTemplates(def, nil)
	require.NoError(t, err)
	require.Equal(t, defaultUserTemplate, user)
}

func TestRenderTemplatesRequiresSystem(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{
		Slug:           "test",
		SystemTemplate: "{{#if opener}}{{opener}}{{/if}}",
	}}

	_, _, err := renderTemplates(def, map[string]string{"opener": ""})
	require.Error(t, err)
}

func TestStyleRulesBlock(t *testing.T) {
	require.Equal(t, "", styleRulesBlock(nil))
	require.Equal(t, "- a\n- b", styleRulesBlock([]string{" a ", "", "b"}))
}

func TestEmbeddedDefinitionsRenderCleanly(t *testing.T) {
	prompts, err := prompt.LoadDefaults()
	require.NoError(t, err)

	vars := map[string]string{
		"tone":        ToneGentle,
		"period":      PeriodMorning,
		"language":    "en",
		"sentences":   "2",
		"opener":      "Today is yours to shape.",
		"style_rules": "- keep it short",
	}

	for _, def := range prompts {
		system, user, err := renderTemplates(def, vars)
		require.NoError(t, err, "definition %s", def.Config.Slug)
		require.NotContains(t, system, "{{", "definition %s left unrendered tags", def.Config.Slug)
		require.NotContains(t, user, "{{", "definition %s left unrendered tags", def.Config.Slug)
	}
}
