package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"coachbot.io/ai-router/internal/container"
	"coachbot.io/ai-router/internal/store"
)

var coachesFile string

var importCoachesCmd = &cobra.Command{
	Use:   "import-coaches",
	Short: "Create or overwrite coaching contexts from a YAML file and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := container.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer c.Close()

		log.Printf("Starting coach import from %s...", coachesFile)
		n, err := store.ImportCoachesFromFile(cmd.Context(), c.Store(), coachesFile)
		if err != nil {
			return fmt.Errorf("coach import failed: %w", err)
		}
		log.Printf("Coach import complete. Imported %d coaching contexts.", n)
		return nil
	},
}

func init() {
	importCoachesCmd.Flags().StringVarP(&coachesFile, "file", "f", "coaches.yaml", "YAML file with a coaches list")
}
