package models

// AnalysisResult is the response body for the /analyze and /caption routes.
// TempoBPM and DurationSeconds are nil (JSON null) when feature extraction
// failed; a real 0 only ever comes from the extractor itself.
type AnalysisResult struct {
	Analysis        string   `json:"analysis"`
	TempoBPM        *float64 `json:"tempo_bpm"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// PartyVibeResult is an AnalysisResult tagged with the vibe-check marker.
type PartyVibeResult struct {
	AnalysisResult
	VibeCheck bool `json:"vibe_check"`
}

// TranscriptionResult carries only the lyrics; no audio features.
type TranscriptionResult struct {
	Lyrics string `json:"lyrics"`
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Cached bool   `json:"cached"`
}

// ErrorResponse is the JSON error envelope every route returns on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

const StatusHealthy = "healthy"
