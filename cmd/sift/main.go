// Command sift researches a content niche and writes a content strategy.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FranksOps/sift/internal/config"
	"github.com/FranksOps/sift/internal/logging"
)

var version = "dev"

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

type globals struct {
	cfgPath  string
	logLevel string
}

func rootCMD() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "sift",
		Short:        "Market research and content strategy from live search results",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.cfgPath, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level")

	root.AddCommand(analyzeCMD(g), serveCMD(g), historyCMD(g), healthCMD(g))
	return root
}

// load reads the config and installs the process logger.
func (g *globals) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
