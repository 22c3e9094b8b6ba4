package api

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheMindExpansionNetwork/musicmind/internal/audio"
	"github.com/TheMindExpansionNetwork/musicmind/internal/engine"
	"github.com/TheMindExpansionNetwork/musicmind/internal/models"
)

// saveUpload writes the multipart "file" part to a temp file and returns its
// path plus a cleanup func. The temp file is removed regardless of what the
// handler does with it. ok=false means the response has already been written.
func (s *Server) saveUpload(c *gin.Context) (path string, cleanup func(), ok bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No file uploaded"})
		return "", nil, false
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	tempFile, err := os.CreateTemp(s.cfg.Server.TempDir, "musicmind-*"+ext)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Server storage error"})
		return "", nil, false
	}
	cleanup = func() { os.Remove(tempFile.Name()) }

	uploaded, err := fileHeader.Open()
	if err != nil {
		tempFile.Close()
		cleanup()
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "File open error"})
		return "", nil, false
	}
	defer uploaded.Close()

	if _, err := io.Copy(tempFile, uploaded); err != nil {
		tempFile.Close()
		cleanup()
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Server storage error"})
		return "", nil, false
	}
	tempFile.Close()

	if !audio.IsSupportedFormat(fileHeader.Filename) {
		slog.Warn("upload has unfamiliar extension, passing through", "filename", fileHeader.Filename)
	}
	if info, err := audio.Sniff(tempFile.Name()); err == nil {
		slog.Info("upload received",
			"filename", fileHeader.Filename,
			"format", info.Format,
			"title", info.Title,
			"artist", info.Artist)
	} else {
		slog.Info("upload received", "filename", fileHeader.Filename, "size", fileHeader.Size)
	}

	return tempFile.Name(), cleanup, true
}

// attachFeatures runs tempo extraction and fills the nullable fields. Failure
// is logged and degraded to null, never surfaced to the caller.
func (s *Server) attachFeatures(c *gin.Context, path string, res *models.AnalysisResult) {
	feat, err := s.analyzer.Analyze(c.Request.Context(), path)
	if err != nil || feat == nil {
		slog.Warn("tempo extraction failed, serving null features", "error", err)
		return
	}
	res.TempoBPM = &feat.TempoBPM
	res.DurationSeconds = &feat.DurationSeconds
}

// Analyze handles POST /analyze: general music analysis with an optional
// caller-supplied prompt.
func (s *Server) Analyze(c *gin.Context) {
	path, cleanup, ok := s.saveUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	timer := prometheus.NewTimer(inferenceDuration.WithLabelValues("analyze"))
	text, err := s.engine.AnalyzeMusic(c.Request.Context(), path, c.PostForm("prompt"))
	timer.ObserveDuration()
	if err != nil {
		slog.Error("analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	res := models.AnalysisResult{Analysis: text}
	s.attachFeatures(c, path, &res)
	c.JSON(http.StatusOK, res)
}

// PartyVibe handles POST /party-vibe: the analysis route specialized with the
// party rating prompt and tagged with vibe_check.
func (s *Server) PartyVibe(c *gin.Context) {
	path, cleanup, ok := s.saveUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	timer := prometheus.NewTimer(inferenceDuration.WithLabelValues("party-vibe"))
	text, err := s.engine.AnalyzeMusic(c.Request.Context(), path, engine.PartyVibePrompt)
	timer.ObserveDuration()
	if err != nil {
		slog.Error("party vibe check failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	res := models.PartyVibeResult{
		AnalysisResult: models.AnalysisResult{Analysis: text},
		VibeCheck:      true,
	}
	s.attachFeatures(c, path, &res.AnalysisResult)
	c.JSON(http.StatusOK, res)
}

// Transcribe handles POST /transcribe. Lyrics only, no audio features.
func (s *Server) Transcribe(c *gin.Context) {
	path, cleanup, ok := s.saveUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	timer := prometheus.NewTimer(inferenceDuration.WithLabelValues("transcribe"))
	text, err := s.engine.TranscribeLyrics(c.Request.Context(), path)
	timer.ObserveDuration()
	if err != nil {
		slog.Error("transcription failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.TranscriptionResult{Lyrics: text})
}

// Caption handles POST /caption: analysis with the social caption prompt.
func (s *Server) Caption(c *gin.Context) {
	path, cleanup, ok := s.saveUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	timer := prometheus.NewTimer(inferenceDuration.WithLabelValues("caption"))
	text, err := s.engine.AnalyzeMusic(c.Request.Context(), path, engine.CaptionPrompt)
	timer.ObserveDuration()
	if err != nil {
		slog.Error("caption generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	res := models.AnalysisResult{Analysis: text}
	s.attachFeatures(c, path, &res)
	c.JSON(http.StatusOK, res)
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthStatus{
		Status: models.StatusHealthy,
		Model:  s.cfg.Engine.Model,
		Cached: s.cache.Cached(),
	})
}
