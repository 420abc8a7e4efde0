package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"career-matching/internal/common/config"
	"career-matching/internal/common/logger"
)

const app = "careerctl"

// Actual version can be specified in build command.
var version = "unknown"

type rootOptions struct {
	configFile string
	debug      bool
	jsonLogs   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           app,
		Short:         "careerctl works with career matching artifacts and catalogs offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVarP(&opts.jsonLogs, "json", "j", false, "json format for logging")

	root.AddCommand(
		newInspectCmd(opts),
		newPredictCmd(opts),
		newEvaluateCmd(opts),
		newLoadCatalogCmd(opts),
		newActivitiesCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) logger() logger.Logger {
	level, format := "warn", "console"
	if o.debug {
		level = "debug"
	}
	if o.jsonLogs {
		format = "json"
	}
	return logger.NewStructured(level, format, "stderr")
}

// loadConfig reads --config when given, otherwise the standard search path. Config is only
// needed by commands that touch the stores.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.LoadFromFile(o.configFile)
	}
	return config.Load()
}

// matchingDefaults are the scoring parameters used when no config file is involved.
func matchingDefaults() config.MatchingConfig {
	return config.MatchingConfig{
		TopK:            3,
		SimilarityTopN:  5,
		DefaultStrategy: config.StrategyBoth,
		DefaultAge:      25,
		FitCacheSize:    1,
		Weights:         config.SimilarityWeightConfig{Skills: 0.5, Qualifications: 0.3, Industry: 0.2},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}
