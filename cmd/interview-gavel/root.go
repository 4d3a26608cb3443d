package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ahrav/interview-gavel/infrastructure/middleware"
	"github.com/ahrav/interview-gavel/internal/config"
)

// appFactory builds the application for one command invocation. Tests
// replace it to avoid touching the environment.
var appFactory = func(ctx context.Context, scoringPath string, reg *prometheus.Registry) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg, scoringPath, reg)
}

type rootOptions struct {
	scoringConfig string
	metricsFile   string

	registry *prometheus.Registry
	app      *app
}

// shutdown writes the metrics file and releases the app. It runs after
// every invocation, including failed ones, and is a no-op when no app was
// built.
func (o *rootOptions) shutdown() error {
	if o.app == nil {
		return nil
	}
	defer func() {
		o.app.Close()
		o.app = nil
	}()

	if o.metricsFile == "" || o.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.metricsFile, o.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// execute runs cmd and always shuts opts down afterwards. Cobra skips
// post-run hooks when a command fails, so cleanup cannot live there.
func execute(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, opts.shutdown())
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "interview-gavel",
		Short:         "Evaluate interview answers",
		Long:          "interview-gavel scores interview answers with an LLM judge and local heuristics, records them against interviews, and computes session scores.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.registry = prometheus.NewRegistry()
			a, err := appFactory(cmd.Context(), opts.scoringConfig, opts.registry)
			if err != nil {
				return err
			}
			opts.app = a
			cmd.SetContext(middleware.ContextWithLogger(cmd.Context(), a.logger))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.scoringConfig, "scoring-config", "", "Path to a scoring YAML file (overrides SCORING_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file on exit")

	cmd.AddCommand(
		newEvaluateCmd(opts),
		newQuestionsCmd(opts),
		newInterviewCmd(opts),
		newFinalizeCmd(opts),
	)
	return cmd, opts
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
