// Package engine talks to the inference runtime hosting the pretrained
// audio-language model. It sends a chat-style request carrying the prompt and
// the raw audio, and returns the generated text. The model itself lives in the
// runtime; this package is a thin typed client over its HTTP surface.
package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheMindExpansionNetwork/musicmind/internal/config"
)

const generateTimeout = 110 * time.Second

type Engine struct {
	baseURL    string
	model      string
	httpClient *http.Client

	maxNewTokens   int
	maxLyricTokens int
	temperature    float64
	topP           float64
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// Data holds the base64-encoded audio payload for audio parts.
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type generateRequest struct {
	Model        string        `json:"model"`
	Messages     []chatMessage `json:"messages"`
	MaxNewTokens int           `json:"max_new_tokens"`
	DoSample     bool          `json:"do_sample"`
	Temperature  float64       `json:"temperature,omitempty"`
	TopP         float64       `json:"top_p,omitempty"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func New(cfg *config.Config) *Engine {
	baseURL := strings.TrimRight(cfg.Engine.BaseURL, "/")
	return &Engine{
		baseURL:        baseURL,
		model:          cfg.Engine.Model,
		httpClient:     &http.Client{Timeout: generateTimeout},
		maxNewTokens:   cfg.Engine.MaxNewTokens,
		maxLyricTokens: cfg.Engine.MaxLyricTokens,
		temperature:    cfg.Engine.Temperature,
		topP:           cfg.Engine.TopP,
	}
}

// Model returns the model id the engine was configured with.
func (e *Engine) Model() string {
	return e.model
}

// AnalyzeMusic generates free-text insights for the track. An empty prompt
// falls back to the built-in analysis rubric.
func (e *Engine) AnalyzeMusic(ctx context.Context, audioPath, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = AnalysisPrompt
	}
	return e.generate(ctx, audioPath, prompt, e.maxNewTokens, true)
}

// TranscribeLyrics generates a lyric transcription. Sampling is disabled so the
// transcript stays deterministic.
func (e *Engine) TranscribeLyrics(ctx context.Context, audioPath string) (string, error) {
	return e.generate(ctx, audioPath, TranscriptionPrompt, e.maxLyricTokens, false)
}

func (e *Engine) generate(ctx context.Context, audioPath, prompt string, maxTokens int, sample bool) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("engine: read audio: %w", err)
	}

	payload := generateRequest{
		Model: e.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{
						Type:   "audio",
						Data:   base64.StdEncoding.EncodeToString(audio),
						Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), "."),
					},
				},
			},
		},
		MaxNewTokens: maxTokens,
		DoSample:     sample,
	}
	if sample {
		payload.Temperature = e.temperature
		payload.TopP = e.topP
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("engine: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("engine: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("engine: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("engine: unexpected status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("engine: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("engine: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return "", fmt.Errorf("engine: empty response")
	}

	return parsed.Text, nil
}
