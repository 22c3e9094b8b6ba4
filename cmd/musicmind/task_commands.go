package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var promptFlag string

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Analyze music: genre, mood, use case, production notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := requireFile(path); err != nil {
				return err
			}

			slog.Debug("uploading for analysis", "file", path)
			res, raw, err := newClient().Analyze(cmd.Context(), path, promptFlag)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printRawJSON(raw)
			}
			printHeader("🎵 MUSIC ANALYSIS")
			fmt.Println(res.Analysis)
			fmt.Println()
			fmt.Printf("📊 Tempo: %s\n", formatBPM(res.TempoBPM))
			fmt.Printf("⏱️  Duration: %s\n", formatSeconds(res.DurationSeconds))
			return nil
		},
	}

	cmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "custom analysis prompt")
	return cmd
}

func newPartyVibeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "party-vibe <audio-file>",
		Short: "Rate a track's party suitability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := requireFile(path); err != nil {
				return err
			}

			res, raw, err := newClient().PartyVibe(cmd.Context(), path)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printRawJSON(raw)
			}
			printHeader("🎉 PARTY VIBE CHECK")
			fmt.Println(res.Analysis)
			fmt.Println()
			fmt.Printf("📊 Tempo: %s\n", formatBPM(res.TempoBPM))
			return nil
		},
	}
}

func newTranscribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe lyrics from a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := requireFile(path); err != nil {
				return err
			}

			res, raw, err := newClient().Transcribe(cmd.Context(), path)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printRawJSON(raw)
			}
			printHeader("🎤 LYRICS TRANSCRIPTION")
			fmt.Println(res.Lyrics)
			return nil
		},
	}
}

func newCaptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "caption <audio-file>",
		Short: "Generate a social media caption for a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := requireFile(path); err != nil {
				return err
			}

			res, raw, err := newClient().Caption(cmd.Context(), path)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printRawJSON(raw)
			}
			printHeader("📱 SOCIAL MEDIA CAPTION")
			fmt.Println(res.Analysis)
			return nil
		},
	}
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check if the service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, raw, err := newClient().Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			if jsonOutput {
				return printRawJSON(raw)
			}
			fmt.Printf("✅ %s is healthy\n", res.Model)
			return nil
		},
	}
}

// requireFile rejects missing paths before any network traffic.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	return nil
}
