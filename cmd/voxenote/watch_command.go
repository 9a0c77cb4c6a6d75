package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vasd85/voxenote/internal/pipeline"
	"github.com/vasd85/voxenote/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var recursive string

	cmd := &cobra.Command{
		Use:   "watch [source...]",
		Short: "Watch source directories and run the pipeline when recordings settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			plans, err := ctx.collectPlans(args, recursive)
			if err != nil {
				return err
			}
			orchestrator, err := ctx.buildOrchestrator(pipeline.Options{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			handler := func(runCtx context.Context) error {
				r := newRenderer(out)
				return r.consume(orchestrator.Run(runCtx, plans))
			}

			settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
			watcher := watch.New(plans, settle, cfg.SupportsFormat, handler, logger)

			return ctx.withLock(func() error {
				fmt.Fprintf(out, "Watching %d source(s); press Ctrl-C to stop\n", len(plans))
				return watcher.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&recursive, "recursive", "auto", "Scan sources recursively: auto, on, or off")
	return cmd
}
