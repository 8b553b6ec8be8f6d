package smoke

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// PrintReport writes one line per check and a summary.
func PrintReport(w io.Writer, r *Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tTARGET\tSTATUS\tWANT\tRESULT\tDETAIL")
	for _, c := range r.Checks {
		result := "ok"
		if !c.OK() {
			result = "FAIL"
		}
		detail := c.Message
		if c.ID != nil {
			detail += " (id " + strconv.FormatInt(*c.ID, 10) + ")"
		}
		if c.Err != nil {
			detail = c.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", c.Name, c.Target, c.Got, joinInts(c.Want), result, detail)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d checks, %d failed, mode %s, %s\n",
		len(r.Checks), len(r.Failed()), r.Mode, r.Duration.Round(time.Millisecond))
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, "|")
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Site Forms Smoke Tool
=====================

Posts real requests at a running deployment and reports the answers.

Usage:
  go run ./cmd/smoke [options]

Options:
  -mode string
        api: post every form to the service; sheet: append a test row to the webhook (default "api")
  -url string
        Base URL of the service (default "http://localhost:8080")
  -sheet-url string
        Spreadsheet webhook URL for -mode sheet (default $SITEFORMS_SHEETS__URL)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every response message
  -help
        Show this help message

Examples:
  go run ./cmd/smoke -url https://forms.example.com
  go run ./cmd/smoke -mode sheet -sheet-url https://script.google.com/macros/s/XYZ/exec
`)
}
