package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		ListenAddr  string `mapstructure:"listen_addr"`
		TempDir     string `mapstructure:"temp_dir"`
		MetricsPort string `mapstructure:"metrics_port"`
		AuthToken   string `mapstructure:"auth_token"`
		MaxUploadMB int64  `mapstructure:"max_upload_mb"`
	} `mapstructure:"server"`
	Engine struct {
		BaseURL        string  `mapstructure:"base_url"`
		Model          string  `mapstructure:"model"`
		MaxNewTokens   int     `mapstructure:"max_new_tokens"`
		MaxLyricTokens int     `mapstructure:"max_lyric_tokens"`
		Temperature    float64 `mapstructure:"temperature"`
		TopP           float64 `mapstructure:"top_p"`
	} `mapstructure:"engine"`
	Audio struct {
		FFmpegPath    string `mapstructure:"ffmpeg_path"`
		ExtractorPath string `mapstructure:"extractor_path"`
		WindowSeconds int    `mapstructure:"window_seconds"`
	} `mapstructure:"audio"`
	Weights struct {
		Endpoint string `mapstructure:"endpoint"`
		Region   string `mapstructure:"region"`
		KeyID    string `mapstructure:"key_id"`
		AppKey   string `mapstructure:"app_key"`
		Bucket   string `mapstructure:"bucket"`
		Prefix   string `mapstructure:"prefix"`
		CacheDir string `mapstructure:"cache_dir"`
	} `mapstructure:"weights"`
}

func Load() *Config {
	viper.SetEnvPrefix("MUSICMIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.listen_addr")
	viper.BindEnv("server.temp_dir")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.auth_token")
	viper.BindEnv("server.max_upload_mb")

	viper.BindEnv("engine.base_url")
	viper.BindEnv("engine.model")
	viper.BindEnv("engine.max_new_tokens")
	viper.BindEnv("engine.max_lyric_tokens")
	viper.BindEnv("engine.temperature")
	viper.BindEnv("engine.top_p")

	viper.BindEnv("audio.ffmpeg_path")
	viper.BindEnv("audio.extractor_path")
	viper.BindEnv("audio.window_seconds")

	viper.BindEnv("weights.endpoint")
	viper.BindEnv("weights.region")
	viper.BindEnv("weights.key_id")
	viper.BindEnv("weights.app_key")
	viper.BindEnv("weights.bucket")
	viper.BindEnv("weights.prefix")
	viper.BindEnv("weights.cache_dir")

	// Defaults
	viper.SetDefault("server.listen_addr", ":8000")
	viper.SetDefault("server.temp_dir", "/tmp/")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.max_upload_mb", 64)

	// Engine defaults match the generation settings the model was tuned with.
	viper.SetDefault("engine.base_url", "http://localhost:8080")
	viper.SetDefault("engine.model", "audio-flamingo-3")
	viper.SetDefault("engine.max_new_tokens", 512)
	viper.SetDefault("engine.max_lyric_tokens", 1024)
	viper.SetDefault("engine.temperature", 0.7)
	viper.SetDefault("engine.top_p", 0.9)

	viper.SetDefault("audio.ffmpeg_path", "ffmpeg")
	viper.SetDefault("audio.extractor_path", "streaming_extractor_music")
	viper.SetDefault("audio.window_seconds", 30)

	viper.SetDefault("weights.prefix", "audio-flamingo-3/")
	viper.SetDefault("weights.cache_dir", "/cache/weights")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return &cfg
}
