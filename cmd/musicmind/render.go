package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

func printHeader(title string) {
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 50))
}

// printRawJSON pretty-prints the server body exactly as received, just
// re-indented.
func printRawJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	fmt.Println(buf.String())
	return nil
}

// formatBPM renders the nullable tempo; null means extraction failed
// server-side.
func formatBPM(bpm *float64) string {
	if bpm == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f BPM", *bpm)
}

func formatSeconds(seconds *float64) string {
	if seconds == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fs", *seconds)
}
