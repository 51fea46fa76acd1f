package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/report"
)

var formats = map[string]func(io.Writer, *pipeline.Result) error{
	"text": report.WriteText,
	"json": report.WriteJSON,
	"html": report.WriteHTML,
}

func analyzeCMD(g *globals) *cobra.Command {
	var (
		brief  model.Brief
		format string
		output string
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the research pipeline for one brief and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			write, ok := formats[strings.ToLower(format)]
			if !ok {
				return fmt.Errorf("unknown format %q (want text, json or html)", format)
			}

			cfg, logger, err := g.load()
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var progress func(string)
			if !quiet {
				stderr := cmd.ErrOrStderr()
				progress = func(line string) { fmt.Fprintln(stderr, line) }
			}

			res, runErr := a.pipeline.Run(ctx, brief, progress)

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := write(out, res); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if runErr != nil {
				return fmt.Errorf("%s: %w", pipeline.Classify(runErr), runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&brief.Niche, "niche", "", "content topic")
	cmd.Flags().StringVar(&brief.Platform, "platform", "", "publishing platform")
	cmd.Flags().StringVar(&brief.Audience, "audience", "", "target audience")
	cmd.Flags().StringVar(&brief.Goal, "goal", "", "business goal")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "report format: text, json or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress lines")
	for _, name := range []string{"niche", "platform", "audience", "goal"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
