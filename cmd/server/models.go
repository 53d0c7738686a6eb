package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coachbot.io/ai-router/internal/container"
)

var (
	modelsProvider string
	modelsAPIKey   string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models an API key can use with a provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := container.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer c.Close()

		models, err := c.ChatService().ListModels(cmd.Context(), modelsAPIKey, modelsProvider)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsProvider, "provider", "p", "gemini", "Provider id: gemini, openai or deepseek")
	modelsCmd.Flags().StringVarP(&modelsAPIKey, "api-key", "k", "", "Provider API key")
	_ = modelsCmd.MarkFlagRequired("api-key")
}
