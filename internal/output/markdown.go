package output

import (
	"fmt"
	"strings"

	"github.com/daybreakhq/daybreak/internal/affirm"
)

// MarkdownFormatter renders results as Markdown.
type MarkdownFormatter struct{}

// FormatAffirmation renders a generated affirmation as Markdown.
func (f *MarkdownFormatter) FormatAffirmation(resp *affirm.Response) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("> %s\n\n", resp.Text))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| period | %s |\n", escapeMarkdownCell(resp.Period)))
	sb.WriteString(fmt.Sprintf("| intent | %s |\n", escapeMarkdownCell(resp.Intent)))
	sb.WriteString(fmt.Sprintf("| tone | %s |\n", escapeMarkdownCell(resp.Tone)))
	sb.WriteString(fmt.Sprintf("| language | %s |\n", escapeMarkdownCell(resp.Language)))
	if resp.Opener != "" {
		sb.WriteString(fmt.Sprintf("| opener | %s |\n", escapeMarkdownCell(resp.Opener)))
	}
	if resp.Model != "" {
		sb.WriteString(fmt.Sprintf("| model | %s |\n", escapeMarkdownCell(resp.Model)))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
