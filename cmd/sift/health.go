package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FranksOps/sift/internal/llm"
)

func healthCMD(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the text-generation backend is reachable and has the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			client, err := llm.NewClient(llm.Config{
				BaseURL:     cfg.LLM.BaseURL,
				Model:       cfg.LLM.Model,
				NumCtx:      cfg.LLM.NumCtx,
				PingTimeout: cfg.LLM.PingTimeout,
			}, logger)
			if err != nil {
				return err
			}
			if err := client.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("backend at %s: %w", cfg.LLM.BaseURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend ok: %s at %s\n", client.Model(), cfg.LLM.BaseURL)
			return nil
		},
	}
}
