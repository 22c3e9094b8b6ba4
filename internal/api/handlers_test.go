package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/TheMindExpansionNetwork/musicmind/internal/audio"
	"github.com/TheMindExpansionNetwork/musicmind/internal/config"
	"github.com/TheMindExpansionNetwork/musicmind/internal/engine"
	"github.com/TheMindExpansionNetwork/musicmind/internal/models"
)

type stubEngine struct {
	analysis  string
	lyrics    string
	err       error
	gotPrompt string
}

func (s *stubEngine) AnalyzeMusic(ctx context.Context, audioPath, prompt string) (string, error) {
	s.gotPrompt = prompt
	return s.analysis, s.err
}

func (s *stubEngine) TranscribeLyrics(ctx context.Context, audioPath string) (string, error) {
	return s.lyrics, s.err
}

type stubAnalyzer struct {
	feat *audio.Features
	err  error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, path string) (*audio.Features, error) {
	return s.feat, s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.TempDir = t.TempDir()
	cfg.Server.MaxUploadMB = 8
	cfg.Engine.Model = "audio-flamingo-3"
	return cfg
}

func uploadRequest(t *testing.T, route string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "track.mp3")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("not really audio but the stub never decodes it"))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, route, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeReturnsAnalysisAndFeatures(t *testing.T) {
	eng := &stubEngine{analysis: "Genre: melodic techno. Energy 8/10."}
	an := &stubAnalyzer{feat: &audio.Features{TempoBPM: 128.02, DurationSeconds: 212.4}}
	cfg := testConfig(t)
	srv := New(cfg, eng, an, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "/analyze", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
	}

	var res models.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Analysis != eng.analysis {
		t.Errorf("analysis = %q; want %q", res.Analysis, eng.analysis)
	}
	if res.TempoBPM == nil || *res.TempoBPM != 128.02 {
		t.Errorf("tempo_bpm = %v; want 128.02", res.TempoBPM)
	}
	if res.DurationSeconds == nil || *res.DurationSeconds != 212.4 {
		t.Errorf("duration_seconds = %v; want 212.4", res.DurationSeconds)
	}

	// The upload must not outlive the request.
	entries, err := os.ReadDir(cfg.Server.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up, %d files left", len(entries))
	}
}

func TestAnalyzeForwardsCustomPrompt(t *testing.T) {
	eng := &stubEngine{analysis: "ok"}
	srv := New(testConfig(t), eng, &stubAnalyzer{err: errors.New("no extractor")}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "/analyze", map[string]string{"prompt": "what key is this in?"}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if eng.gotPrompt != "what key is this in?" {
		t.Errorf("prompt = %q; want caller prompt", eng.gotPrompt)
	}
}

func TestAnalyzeNullFeaturesOnExtractionFailure(t *testing.T) {
	eng := &stubEngine{analysis: "moody ambient"}
	srv := New(testConfig(t), eng, &stubAnalyzer{err: errors.New("essentia crash")}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "/analyze", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var res map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"tempo_bpm", "duration_seconds"} {
		v, present := res[field]
		if !present {
			t.Errorf("%s missing from response", field)
		} else if v != nil {
			t.Errorf("%s = %v; want null when extraction fails", field, v)
		}
	}
}

func TestPartyVibeUsesVerdictPromptAndMarker(t *testing.T) {
	eng := &stubEngine{analysis: "🔥 BANGER - Drop this at peak time!"}
	srv := New(testConfig(t), eng, &stubAnalyzer{feat: &audio.Features{TempoBPM: 140}}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "/party-vibe", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if eng.gotPrompt != engine.PartyVibePrompt {
		t.Errorf("party-vibe used prompt %q", eng.gotPrompt)
	}

	var res models.PartyVibeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.VibeCheck {
		t.Error("vibe_check not set")
	}
}

func TestTranscribeReturnsOnlyLyrics(t *testing.T) {
	eng := &stubEngine{lyrics: "never gonna give you up"}
	srv := New(testConfig(t), eng, &stubAnalyzer{}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "/transcribe", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var res map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Errorf("transcribe response has %d fields (%v); want only lyrics", len(res), res)
	}
	if res["lyrics"] != "never gonna give you up" {
		t.Errorf("lyrics = %v", res["lyrics"])
	}
}

func TestMissingFileIsBadRequest(t *testing.T) {
	srv := New(testConfig(t), &stubEngine{}, &stubAnalyzer{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", w.Code)
	}

	var res models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Error == "" {
		t.Error("expected error message in body")
	}
}

func TestEngineFailureIsJSONError(t *testing.T) {
	eng := &stubEngine{err: errors.New("CUDA out of memory")}
	srv := New(testConfig(t), eng, &stubAnalyzer{}, nil)

	for _, route := range []string{"/analyze", "/party-vibe", "/transcribe", "/caption"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, uploadRequest(t, route, nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d; want 500", route, w.Code)
		}
		var res models.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("%s: %v", route, err)
		}
		if res.Error != "CUDA out of memory" {
			t.Errorf("%s error = %q", route, res.Error)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := New(testConfig(t), &stubEngine{}, &stubAnalyzer{}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var res models.HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusHealthy {
		t.Errorf("status = %q; want %q", res.Status, models.StatusHealthy)
	}
	if res.Model != "audio-flamingo-3" {
		t.Errorf("model = %q", res.Model)
	}
	if res.Cached {
		t.Error("cached should be false with no warmer")
	}
}

func TestAuthTokenGuardsTaskRoutes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AuthToken = "s3cret"
	srv := New(cfg, &stubEngine{analysis: "ok"}, &stubAnalyzer{}, nil)

	// No token: rejected before any work.
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "/analyze", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d; want 401", w.Code)
	}

	// Bearer token: accepted.
	w = httptest.NewRecorder()
	req := uploadRequest(t, "/analyze", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token: status = %d; want 200", w.Code)
	}

	// Health stays open.
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: status = %d; want 200", w.Code)
	}
}
