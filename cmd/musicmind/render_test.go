package main

import (
	"testing"
)

func TestFormatBPM(t *testing.T) {
	bpm := 128.024
	if got := formatBPM(&bpm); got != "128.0 BPM" {
		t.Errorf("formatBPM = %q", got)
	}
	if got := formatBPM(nil); got != "n/a" {
		t.Errorf("formatBPM(nil) = %q; want n/a", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	d := 212.46
	if got := formatSeconds(&d); got != "212.5s" {
		t.Errorf("formatSeconds = %q", got)
	}
	if got := formatSeconds(nil); got != "n/a" {
		t.Errorf("formatSeconds(nil) = %q; want n/a", got)
	}
}

func TestCommandsRequireAudioFile(t *testing.T) {
	for _, name := range []string{"analyze", "party-vibe", "transcribe", "caption"} {
		root := newRootCommand()
		root.SetArgs([]string{name})
		if err := root.Execute(); err == nil {
			t.Errorf("%s without a file should fail", name)
		}
	}
}

func TestCommandsRejectMissingFile(t *testing.T) {
	for _, name := range []string{"analyze", "party-vibe", "transcribe", "caption"} {
		root := newRootCommand()
		// Endpoint points nowhere reachable; the stat check must fail first.
		root.SetArgs([]string{name, "/no/such/track.mp3", "--endpoint", "http://127.0.0.1:1"})
		err := root.Execute()
		if err == nil {
			t.Errorf("%s with missing file should fail", name)
			continue
		}
		if got := err.Error(); got != "file not found: /no/such/track.mp3" {
			t.Errorf("%s error = %q; want file-not-found before any network call", name, got)
		}
	}
}
