package main

import (
	"github.com/spf13/cobra"

	"github.com/vasd85/voxenote/internal/pipeline"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var recursive string

	cmd := &cobra.Command{
		Use:   "collect [source...]",
		Short: "Copy new recordings from source directories into the ingest area",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := ctx.collectPlans(args, recursive)
			if err != nil {
				return err
			}
			orchestrator, err := ctx.buildOrchestrator(pipeline.Options{})
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				r := newRenderer(cmd.OutOrStdout())
				return r.consume(orchestrator.Collect(cmd.Context(), plans))
			})
		},
	}

	cmd.Flags().StringVar(&recursive, "recursive", "auto", "Scan sources recursively: auto, on, or off")
	return cmd
}

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Denoise and normalize collected recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, err := ctx.buildOrchestrator(pipeline.Options{Force: force})
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				r := newRenderer(cmd.OutOrStdout())
				return r.consume(orchestrator.Prepare(cmd.Context()))
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild prepared audio even when cached")
	return cmd
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Detect speech intervals and cut silence from prepared audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, err := ctx.buildOrchestrator(pipeline.Options{Force: force, DryRun: dryRun})
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				r := newRenderer(cmd.OutOrStdout())
				return r.consume(orchestrator.Trim(cmd.Context()))
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-detect speech even when a trimmed artifact is cached")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report detected intervals without writing any artifact")
	return cmd
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Transcribe, analyze, and file collected recordings as notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, err := ctx.buildOrchestrator(pipeline.Options{Force: force})
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				r := newRenderer(cmd.OutOrStdout())
				return r.consume(orchestrator.Process(cmd.Context()))
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess recordings that already have an entry")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var recursive string
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run [source...]",
		Short: "Run the full pipeline: collect, prepare, trim, process",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := ctx.collectPlans(args, recursive)
			if err != nil {
				return err
			}
			orchestrator, err := ctx.buildOrchestrator(pipeline.Options{Force: force, DryRun: dryRun})
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				r := newRenderer(cmd.OutOrStdout())
				return r.consume(orchestrator.Run(cmd.Context(), plans))
			})
		},
	}

	cmd.Flags().StringVar(&recursive, "recursive", "auto", "Scan sources recursively: auto, on, or off")
	cmd.Flags().BoolVar(&force, "force", false, "Rerun every stage, ignoring caches and prior entries")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report trim intervals without writing any artifact")
	return cmd
}
