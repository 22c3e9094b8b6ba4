package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/TheMindExpansionNetwork/musicmind/internal/api/middleware"
	"github.com/TheMindExpansionNetwork/musicmind/internal/audio"
	"github.com/TheMindExpansionNetwork/musicmind/internal/config"
	"github.com/TheMindExpansionNetwork/musicmind/internal/modelcache"
)

// Generator is the model inference surface the handlers need. The real
// implementation is engine.Engine; tests stub it.
type Generator interface {
	AnalyzeMusic(ctx context.Context, audioPath, prompt string) (string, error)
	TranscribeLyrics(ctx context.Context, audioPath string) (string, error)
}

// FeatureExtractor produces the best-effort tempo/duration measurements.
type FeatureExtractor interface {
	Analyze(ctx context.Context, path string) (*audio.Features, error)
}

type Server struct {
	cfg      *config.Config
	engine   Generator
	analyzer FeatureExtractor
	cache    *modelcache.Warmer
	router   *gin.Engine
}

// New wires the inference server. The engine is constructed once by the caller
// and shared across requests; the hosting platform owns request concurrency.
// cache may be nil when no weights bucket is configured.
func New(cfg *config.Config, eng Generator, analyzer FeatureExtractor, cache *modelcache.Warmer) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		engine:   eng,
		analyzer: analyzer,
		cache:    cache,
		router:   gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	s.router.Use(cors.New(corsConfig))

	s.router.MaxMultipartMemory = s.cfg.Server.MaxUploadMB << 20
}

func (s *Server) setupRoutes() {
	// Health stays open so load balancers can probe without credentials.
	s.router.GET("/health", s.Health)

	tasks := s.router.Group("/")
	if s.cfg.Server.AuthToken != "" {
		tasks.Use(middleware.RequireToken(s.cfg.Server.AuthToken))
	}
	{
		tasks.POST("/analyze", s.Analyze)
		tasks.POST("/party-vibe", s.PartyVibe)
		tasks.POST("/transcribe", s.Transcribe)
		tasks.POST("/caption", s.Caption)
	}
}

// Start runs the server on the configured address.
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
