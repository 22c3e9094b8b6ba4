package modelcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"audio-flamingo-3/model-00001.safetensors", "model-00001.safetensors", false},
		{"audio-flamingo-3/processor/config.json", "processor/config.json", false},
		{"audio-flamingo-3/", "", true},
		{"audio-flamingo-3/../../etc/passwd", "", true},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		got, err := localPath(dir, "audio-flamingo-3/", tt.key)
		if tt.wantErr {
			if err == nil {
				t.Errorf("localPath(%q) expected error, got %q", tt.key, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("localPath(%q) returned error: %v", tt.key, err)
			continue
		}
		want := filepath.Join(dir, filepath.FromSlash(tt.want))
		if got != want {
			t.Errorf("localPath(%q) = %q; want %q", tt.key, got, want)
		}
	}
}

func TestUpToDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.bin")
	if err := os.WriteFile(path, []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}

	if !upToDate(path, 5) {
		t.Error("expected file with matching size to be up to date")
	}
	if upToDate(path, 9) {
		t.Error("expected size mismatch to require a fetch")
	}
	if upToDate(filepath.Join(dir, "missing.bin"), 5) {
		t.Error("expected missing file to require a fetch")
	}
}

func TestNilWarmer(t *testing.T) {
	var w *Warmer
	if w.Cached() {
		t.Error("nil warmer must report an unwarmed cache")
	}
	if n, err := w.Warm(context.Background()); err != nil || n != 0 {
		t.Errorf("nil warmer Warm = (%d, %v); want (0, nil)", n, err)
	}
}
