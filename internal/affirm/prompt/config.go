package prompt

// Opener strategies a prompt definition may declare.
const (
	// StrategyFixed requires the generated text to begin with the selected
	// opener verbatim.
	StrategyFixed = "fixed"
	// StrategyTheme uses the selected opener as a thematic seed; the template
	// decides how to weave it in.
	StrategyTheme = "theme"
	// StrategyNone skips opener selection entirely.
	StrategyNone = "none"
)

// Config describes an affirmation prompt definition loaded from YAML.
type Config struct {
	Slug           string   `yaml:"slug" json:"slug"`
	Name           string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string   `yaml:"version,omitempty" json:"version,omitempty"`
	Updated        string   `yaml:"updated,omitempty" json:"updated,omitempty"`
	OpenerStrategy string   `yaml:"opener_strategy,omitempty" json:"opener_strategy,omitempty"`
	Openers        []string `yaml:"openers,omitempty" json:"openers,omitempty"`
	StyleRules     []string `yaml:"style_rules,omitempty" json:"style_rules,omitempty"`
	SystemTemplate string   `yaml:"system_template,omitempty" json:"system_template,omitempty"`
	UserTemplate   string   `yaml:"user_template,omitempty" json:"user_template,omitempty"`
}

// Strategy returns the effective opener strategy. An unset strategy defaults
// to fixed when the definition carries an opener bank, none otherwise.
func (c Config) Strategy() string {
	switch c.OpenerStrategy {
	case StrategyFixed, StrategyTheme, StrategyNone:
		return c.OpenerStrategy
	case "":
		if len(c.Openers) > 0 {
			return StrategyFixed
		}
		return StrategyNone
	}
	return c.OpenerStrategy
}

// UsesOpener reports whether the definition expects an opener to be selected.
func (c Config) UsesOpener() bool {
	switch c.Strategy() {
	case StrategyFixed, StrategyTheme:
		return len(c.Openers) > 0
	}
	return false
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}
