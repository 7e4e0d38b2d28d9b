package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/daybreakhq/daybreak/internal/affirm"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatAffirmation renders a generated affirmation as a table.
func (f *TableFormatter) FormatAffirmation(resp *affirm.Response) (string, error) {
	if resp == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"text", resp.Text})
	t.AppendRow(table.Row{"period", resp.Period})
	t.AppendRow(table.Row{"intent", resp.Intent})
	t.AppendRow(table.Row{"tone", resp.Tone})
	t.AppendRow(table.Row{"language", resp.Language})
	if resp.Opener != "" {
		t.AppendRow(table.Row{"opener", resp.Opener})
	}
	if resp.Model != "" {
		t.AppendRow(table.Row{"model", resp.Model})
	}

	return t.Render(), nil
}
