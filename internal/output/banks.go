package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/daybreakhq/daybreak/internal/affirm/prompt"
)

// Bank summarizes one prompt definition's opener inventory.
type Bank struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name,omitempty"`
	Strategy string   `json:"strategy"`
	Count    int      `json:"count"`
	Openers  []string `json:"openers,omitempty"`
}

// BankFromPrompt builds a Bank summary from a prompt definition. The opener
// lines themselves are included only when verbose is set.
func BankFromPrompt(p *prompt.Prompt, verbose bool) Bank {
	bank := Bank{
		Slug:     p.Config.Slug,
		Name:     p.Config.Name,
		Strategy: p.Config.Strategy(),
		Count:    len(p.Config.Openers),
	}
	if verbose {
		bank.Openers = append([]string(nil), p.Config.Openers...)
	}
	return bank
}

// FormatBankList renders opener bank summaries using the requested format.
func FormatBankList(format Format, banks []Bank) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(banks, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatMarkdown:
		var sb strings.Builder
		sb.WriteString("| Slug | Name | Strategy | Openers |\n")
		sb.WriteString("|------|------|----------|--------|\n")
		for _, bank := range banks {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d |\n",
				escapeMarkdownCell(bank.Slug),
				escapeMarkdownCell(bank.Name),
				escapeMarkdownCell(bank.Strategy),
				bank.Count,
			))
		}
		return sb.String(), nil
	default:
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Slug", "Name", "Strategy", "Openers"})
		total := 0
		for _, bank := range banks {
			t.AppendRow(table.Row{bank.Slug, bank.Name, bank.Strategy, bank.Count})
			total += bank.Count
		}
		t.AppendFooter(table.Row{"", "", "total", total})
		return t.Render(), nil
	}
}

// FormatBank renders a single bank with its full opener list.
func FormatBank(format Format, bank Bank) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(bank, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatMarkdown:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", escapeMarkdownCell(bank.Slug), escapeMarkdownCell(bank.Strategy)))
		for _, opener := range bank.Openers {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdownCell(opener)))
		}
		return sb.String(), nil
	default:
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Opener"})
		for i, opener := range bank.Openers {
			t.AppendRow(table.Row{i + 1, opener})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d openers, strategy %s", bank.Count, bank.Strategy)})
		return t.Render(), nil
	}
}
