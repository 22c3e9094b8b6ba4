package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheMindExpansionNetwork/musicmind/internal/client"
)

var (
	endpointFlag string
	jsonOutput   bool
	verbose      bool
	quiet        bool
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "musicmind",
		Short: "🎵 MusicMind - AI music understanding",
		Long: `MusicMind uploads audio files to the hosted Audio Flamingo 3 deployment
and prints the model's take: genre and mood analysis, party suitability,
lyric transcription, and social media captions.`,
		Example: `  musicmind analyze song.mp3
  musicmind party-vibe track.wav
  musicmind transcribe vocals.mp3
  musicmind caption beat.mp3
  musicmind health`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "service URL (default: $MUSICMIND_ENDPOINT, then the hosted deployment)")
	root.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "output raw JSON")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	root.AddCommand(
		newAnalyzeCommand(),
		newPartyVibeCommand(),
		newTranscribeCommand(),
		newCaptionCommand(),
		newHealthCommand(),
	)

	return root
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func newClient() *client.Client {
	return client.New(client.ResolveEndpoint(endpointFlag))
}
