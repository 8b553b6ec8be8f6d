// Package smoke exercises a running deployment: the form API end to end,
// or the spreadsheet webhook directly.
package smoke

import "time"

// Modes.
const (
	ModeAPI   = "api"
	ModeSheet = "sheet"
)

// Config holds configuration for a smoke run.
type Config struct {
	Mode     string        // ModeAPI or ModeSheet
	BaseURL  string        // Base URL of the form service
	SheetURL string        // Spreadsheet webhook URL for ModeSheet
	Timeout  time.Duration // Per-request timeout
	Verbose  bool          // Log every response body
}

// Check is one request and the statuses it may answer with.
type Check struct {
	Name    string
	Target  string
	Want    []int
	Got     int
	Message string
	ID      *int64
	Err     error
}

// OK reports whether Got is one of Want.
func (c Check) OK() bool {
	if c.Err != nil {
		return false
	}
	for _, w := range c.Want {
		if c.Got == w {
			return true
		}
	}
	return false
}

// Report collects the outcome of a run.
type Report struct {
	Mode      string
	Checks    []Check
	StartTime time.Time
	Duration  time.Duration
}

// Failed returns the checks that did not pass.
func (r *Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}
