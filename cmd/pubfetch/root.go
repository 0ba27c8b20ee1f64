package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/purelit/pure-publications/internal/app"
	"github.com/purelit/pure-publications/internal/config"
	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/internal/service"
	"github.com/purelit/pure-publications/pkg/publishers"
)

type options struct {
	noCache  bool
	refresh  bool
	pretty   bool
	logLevel string
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "pubfetch DOI [DOI...]",
		Short:         "Resolve DOIs to merged publication records",
		Long:          "Resolves each DOI through the same cache and provider pipeline as pubserver and prints one JSON record per line.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}

			log, err := logger.InitWriter(cfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			p, err := app.NewPipeline(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer p.Close()

			return fetchAll(cmd, p.Service, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass fresh cache entries (still stores the result)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "Force a refresh and publish a manual refresh event")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for stderr output")

	return cmd
}

// fetcher is what the CLI needs from service.Service.
type fetcher interface {
	Resolve(ctx context.Context, doi string, noCache bool) (service.Result, error)
	Refresh(ctx context.Context, doi, trigger string) (service.Result, error)
}

func fetchAll(cmd *cobra.Command, svc fetcher, dois []string, opts options) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, doi := range dois {
		var (
			res service.Result
			err error
		)
		if opts.refresh {
			res, err = svc.Refresh(cmd.Context(), doi, publishers.TriggerManual)
		} else {
			res, err = svc.Resolve(cmd.Context(), doi, opts.noCache)
		}
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%q: %v\n", doi, err)
			continue
		}
		if err := writeRecord(out, res, opts.pretty); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(dois))
	}
	return nil
}

func writeRecord(out io.Writer, res service.Result, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res.Record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
