package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheMindExpansionNetwork/musicmind/internal/api"
	"github.com/TheMindExpansionNetwork/musicmind/internal/audio"
	"github.com/TheMindExpansionNetwork/musicmind/internal/config"
	"github.com/TheMindExpansionNetwork/musicmind/internal/engine"
	"github.com/TheMindExpansionNetwork/musicmind/internal/modelcache"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting MusicMind Inference Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Warm the model weight cache so the runtime boots without pulling
	// checkpoints over the wire
	warmer := modelcache.New(cfg)
	if warmer != nil {
		fetched, err := warmer.Warm(context.Background())
		if err != nil {
			// Serve anyway; the runtime can still pull weights itself,
			// /health just reports cached=false
			log.Printf("⚠️ Weight cache warmup failed: %v", err)
		} else {
			log.Printf("💾 Weight cache ready (%d objects fetched)", fetched)
		}
	} else {
		log.Println("Info: no weights bucket configured, skipping cache warmup.")
	}

	// 3. Build the inference engine and feature analyzer
	eng := engine.New(cfg)
	analyzer := audio.NewAnalyzer(cfg)

	// 4. Setup Metrics
	api.RegisterMetrics()
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 5. Start Server
	srv := api.New(cfg, eng, analyzer, warmer)

	log.Printf("🚀 Inference server starting on %s (model: %s)", cfg.Server.ListenAddr, cfg.Engine.Model)
	if err := srv.Start(cfg.Server.ListenAddr); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
