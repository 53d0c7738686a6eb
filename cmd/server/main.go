package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"coachbot.io/ai-router/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "ai-router",
	Short: "Coaching chat router for Gemini, OpenAI and DeepSeek",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Load configuration
		cfg = config.LoadConfig()

		// Setup logging
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		if cfg.Debug() {
			log.Println("Service starting in DEBUG mode")
		}
	},
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(importCoachesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
