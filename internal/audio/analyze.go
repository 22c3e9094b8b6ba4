package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/TheMindExpansionNetwork/musicmind/internal/config"
)

// Features are the signal-level measurements extracted alongside model
// inference. They are best-effort: callers degrade to null fields on error.
type Features struct {
	TempoBPM        float64
	DurationSeconds float64
}

type Analyzer struct {
	ffmpeg    string
	extractor string
	window    int
}

type extractorJSON struct {
	Metadata struct {
		AudioProperties struct {
			Length float64 `json:"length"`
		} `json:"audio_properties"`
	} `json:"metadata"`
	Rhythm struct {
		BPM float64 `json:"bpm"`
	} `json:"rhythm"`
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		ffmpeg:    cfg.Audio.FFmpegPath,
		extractor: cfg.Audio.ExtractorPath,
		window:    cfg.Audio.WindowSeconds,
	}
}

// Analyze runs beat tracking on the first analysis window of the file.
// The extractor chokes on exotic containers, so the input is first
// transcoded to 44.1kHz mono 16-bit PCM.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Features, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	safeWav := absPath + ".safe.wav"
	jsonPath := absPath + ".features.json"

	convCmd := exec.CommandContext(ctx, a.ffmpeg, "-y",
		"-t", strconv.Itoa(a.window),
		"-i", absPath,
		"-ar", "44100", "-ac", "1", "-f", "wav", safeWav)
	if out, err := convCmd.CombinedOutput(); err != nil {
		slog.Error("tempo pre-transcode failed", "file", filepath.Base(path), "error", err, "output", string(out))
		return nil, fmt.Errorf("pre-transcode: %w", err)
	}
	defer os.Remove(safeWav)

	cmd := exec.CommandContext(ctx, a.extractor, safeWav, jsonPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Error("feature extractor failed", "file", filepath.Base(path), "error", err, "output", string(out))
		return nil, fmt.Errorf("extractor: %w", err)
	}
	defer os.Remove(jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read extractor output: %w", err)
	}

	return parseExtractorOutput(data)
}

func parseExtractorOutput(data []byte) (*Features, error) {
	var raw extractorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse extractor output: %w", err)
	}

	if raw.Rhythm.BPM < 0 {
		return nil, fmt.Errorf("extractor returned negative bpm %f", raw.Rhythm.BPM)
	}

	return &Features{
		TempoBPM:        raw.Rhythm.BPM,
		DurationSeconds: raw.Metadata.AudioProperties.Length,
	}, nil
}
