package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FranksOps/sift/internal/config"
	"github.com/FranksOps/sift/internal/storage"
)

func historyCMD(g *globals) *cobra.Command {
	var (
		filter storage.Filter
		failed bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load()
			if err != nil {
				return err
			}
			if cfg.Archive.Backend == config.ArchiveNone {
				return errors.New("run archive is disabled; set archive.backend")
			}
			if cmd.Flags().Changed("failed") {
				filter.Failed = &failed
			}

			archive, err := openArchive(cmd.Context(), cfg.Archive)
			if err != nil {
				return err
			}
			defer archive.Close()

			recs, err := archive.Query(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("query runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tID\tNICHE\tPLATFORM\tSTATUS\tRESULTS\tGAPS\tELAPSED")
			for _, r := range recs {
				status := "ok"
				if r.Failed {
					status = "failed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.1fs\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.ID, r.Niche, r.Platform,
					status, r.ResearchCount, r.GapsFound, r.ElapsedSeconds)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.Niche, "niche", "", "only runs for this niche")
	cmd.Flags().StringVar(&filter.Platform, "platform", "", "only runs for this platform")
	cmd.Flags().BoolVar(&failed, "failed", false, "only failed runs (--failed=false for successful ones)")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full records as JSON")
	return cmd
}
