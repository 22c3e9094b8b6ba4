// Package client is the typed facade over the MusicMind inference service.
// Every call is one blocking round trip: no retries, no backoff, no pooling
// beyond what net/http does on its own.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheMindExpansionNetwork/musicmind/internal/models"
)

const (
	// DefaultEndpoint is the hosted deployment.
	DefaultEndpoint = "https://themindexpansionnetwork--audio-flamingo-music-fastapi-app.modal.run"

	taskTimeout   = 120 * time.Second
	healthTimeout = 10 * time.Second
)

// ResolveEndpoint picks the service URL: explicit value, then the
// MUSICMIND_ENDPOINT environment variable, then the hosted default.
func ResolveEndpoint(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("MUSICMIND_ENDPOINT"); env != "" {
		return env
	}
	return DefaultEndpoint
}

type Client struct {
	endpoint   string
	taskHTTP   *http.Client
	healthHTTP *http.Client
}

func New(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		taskHTTP:   &http.Client{Timeout: taskTimeout},
		healthHTTP: &http.Client{Timeout: healthTimeout},
	}
}

// Analyze uploads the file to /analyze. An empty prompt uses the server's
// built-in rubric. The raw body is returned alongside the parsed result so
// callers can reproduce the server response byte for byte.
func (c *Client) Analyze(ctx context.Context, audioPath, prompt string) (*models.AnalysisResult, json.RawMessage, error) {
	fields := map[string]string{}
	if prompt != "" {
		fields["prompt"] = prompt
	}
	raw, err := c.postFile(ctx, "/analyze", audioPath, fields)
	if err != nil {
		return nil, nil, err
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, raw, nil
}

// PartyVibe uploads the file to /party-vibe.
func (c *Client) PartyVibe(ctx context.Context, audioPath string) (*models.PartyVibeResult, json.RawMessage, error) {
	raw, err := c.postFile(ctx, "/party-vibe", audioPath, nil)
	if err != nil {
		return nil, nil, err
	}
	var res models.PartyVibeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, raw, nil
}

// Transcribe uploads the file to /transcribe.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*models.TranscriptionResult, json.RawMessage, error) {
	raw, err := c.postFile(ctx, "/transcribe", audioPath, nil)
	if err != nil {
		return nil, nil, err
	}
	var res models.TranscriptionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, raw, nil
}

// Caption uploads the file to /caption.
func (c *Client) Caption(ctx context.Context, audioPath string) (*models.AnalysisResult, json.RawMessage, error) {
	raw, err := c.postFile(ctx, "/caption", audioPath, nil)
	if err != nil {
		return nil, nil, err
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, raw, nil
}

// Health probes GET /health with the short timeout.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.healthHTTP.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, raw); err != nil {
		return nil, nil, err
	}

	var res models.HealthStatus
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, raw, nil
}

// postFile streams the audio file as multipart form data. The file must exist:
// that is checked before anything touches the network.
func (c *Client) postFile(ctx context.Context, route, audioPath string, fields map[string]string) (json.RawMessage, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("file not found: %s", audioPath)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		for k, v := range fields {
			if err := mw.WriteField(k, v); err != nil {
				errCh <- err
				return
			}
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(audioPath)))
		h.Set("Content-Type", mimeFromExt(filepath.Ext(audioPath)))
		part, err := mw.CreatePart(h)
		if err != nil {
			errCh <- err
			return
		}

		if _, err := io.Copy(part, f); err != nil {
			errCh <- err
			return
		}

		errCh <- nil
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+route, pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.taskHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return nil, fmt.Errorf("multipart write error: %w", writeErr)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// checkStatus turns a non-2xx response into an error carrying the server's
// error message when the body is the JSON error envelope.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var errRes models.ErrorResponse
	if err := json.Unmarshal(body, &errRes); err == nil && errRes.Error != "" {
		return fmt.Errorf("server returned status %d: %s", status, errRes.Error)
	}
	return fmt.Errorf("server returned status %d: %s", status, strings.TrimSpace(string(body)))
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a":
		return "audio/m4a"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}
