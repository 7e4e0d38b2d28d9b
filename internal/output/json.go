package output

import (
	"encoding/json"

	"github.com/daybreakhq/daybreak/internal/affirm"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatAffirmation renders a generated affirmation as JSON.
func (f *JSONFormatter) FormatAffirmation(resp *affirm.Response) (string, error) {
	if resp == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(resp, "", "  ")
	} else {
		data, err = json.Marshal(resp)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
