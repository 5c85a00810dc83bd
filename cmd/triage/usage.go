package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ShayCichocki/triage/internal/provider"
)

// printUsage writes the tokens spent per model. It writes nothing before the
// first provider call.
func printUsage(w io.Writer, t *provider.TokenTracker) {
	if t == nil || t.Calls() == 0 {
		return
	}

	names := t.Models()
	fmt.Fprintln(w, "Token usage:")
	for _, m := range names {
		u := t.Usage(m)
		fmt.Fprintf(w, "  %-28s %3d calls  %s in / %s out\n",
			m, u.Calls, formatNumber(u.InputTokens), formatNumber(u.OutputTokens))
	}
	if len(names) > 1 {
		in, out := t.Total()
		fmt.Fprintf(w, "  %-28s %3d calls  %s in / %s out\n",
			"total", t.Calls(), formatNumber(in), formatNumber(out))
	}
}

// formatNumber formats a number with commas.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	// Add commas every 3 digits from the right
	var result strings.Builder
	offset := len(s) % 3
	if offset > 0 {
		result.WriteString(s[:offset])
		result.WriteString(",")
	}
	for i := offset; i < len(s); i += 3 {
		result.WriteString(s[i : i+3])
		if i+3 < len(s) {
			result.WriteString(",")
		}
	}
	return result.String()
}
