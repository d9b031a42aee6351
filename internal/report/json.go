package report

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter renders scenario results as JSON Lines, one object per
// result — grounded on the teacher's output.JSONFormatter.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

type jsonViolation struct {
	Addr      string `json:"addr"`
	Width     int    `json:"width"`
	Direction string `json:"direction"`
}

type jsonResult struct {
	Name       string          `json:"name"`
	Detected   bool            `json:"detected"`
	Err        string          `json:"error,omitempty"`
	Violations []jsonViolation `json:"violations,omitempty"`
}

// Format implements Formatter.
func (f *JSONFormatter) Format(buf []byte, result ScenarioResult) []byte {
	jr := jsonResult{
		Name:     result.Name,
		Detected: result.Detected(),
	}
	if result.Err != nil {
		jr.Err = result.Err.Error()
	}
	for _, v := range result.Violations {
		jr.Violations = append(jr.Violations, jsonViolation{
			Addr:      fmt.Sprintf("0x%x", v.Addr),
			Width:     v.Width,
			Direction: v.Dir.String(),
		})
	}

	data, _ := json.Marshal(jr)
	buf = append(buf, data...)
	return append(buf, '\n')
}

var _ Formatter = (*JSONFormatter)(nil)
