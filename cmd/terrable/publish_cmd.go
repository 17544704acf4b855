// File: cmd/terrable/publish_cmd.go
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"terrable/internal/flags"
	"terrable/internal/progress"
	"terrable/internal/service"
	"terrable/internal/ui/prompt"
	"terrable/pkg/formatter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

type publishFlags struct {
	targets     []string
	dryRun      bool
	force       bool
	interactive bool
}

func newPublishCmd() *cobra.Command {
	f := &publishFlags{}

	cmd := &cobra.Command{
		Use:   "publish [directory]",
		Short: "Publish changed modules as new versions",
		Long: `Bundles every subdirectory of the given directory (default ".") into a zip
archive and compares it with the module's latest published version. Modules
whose content changed, or that were never published, are uploaded as the next
version. --force uploads a new version even when nothing changed.`,
		Example: `  terrable publish ./modules -b my-bucket
  terrable publish ./modules --target vpc --target dns --dry-run
  terrable publish -i`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			cat, err := app.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			opts := service.PublishOptions{
				Directory: ".",
				Targets:   f.targets,
				Force:     f.force,
				DryRun:    f.dryRun,
			}
			if len(args) == 1 {
				opts.Directory = args[0]
			}
			if f.interactive {
				opts.Confirm = prompt.PublishConfirmer(prompt.NewStandardPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()))
			}

			// The progress bar would fight the confirmation prompt for the terminal
			useTUI := !f.interactive && app.Output == formatter.FormatTable && isTerminal(os.Stderr)

			stream := progress.NewStream()
			publisher := service.NewPublishService(cat, stream, app.Logger)

			var result service.CommandResult
			err = runWithProgress(cmd.Context(), stream, app.Logger, os.Stderr, useTUI, func(ctx context.Context) error {
				var publishErr error
				result, publishErr = publisher.Publish(ctx, opts)
				return publishErr
			})

			// Outcomes recorded before a store failure are still worth showing
			if result.Code != "" {
				if writeErr := writeResult(cmd.OutOrStdout(), app, result); writeErr != nil && err == nil {
					err = writeErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&f.targets, flags.Target, flags.TargetShort, nil, "Publish only this module directory (repeatable)")
	cmd.Flags().BoolVar(&f.dryRun, flags.DryRun, false, "Bundle and compare without uploading")
	cmd.Flags().BoolVarP(&f.force, flags.Force, flags.ForceShort, false, "Publish a new version even when nothing changed")
	cmd.Flags().BoolVarP(&f.interactive, flags.Interactive, flags.InteractiveShort, false, "Ask for confirmation before each upload")
	return cmd
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// runWithProgress runs work while a listener drains the stream, either into a progress bar
// or into debug log lines. The stream is closed once work returns
func runWithProgress(ctx context.Context, stream *progress.Stream, logger *slog.Logger, out io.Writer, useTUI bool, work func(context.Context) error) error {
	events := stream.Subscribe(64)
	g, gctx := errgroup.WithContext(ctx)

	if useTUI {
		ui := newProgressUI(gctx, out)
		g.Go(func() error {
			for e := range events {
				ui.Send(eventMsg(e))
			}
			ui.Send(finishedMsg{})
			return nil
		})
		g.Go(ui.Run)
	} else {
		g.Go(func() error {
			logEvents(events, logger)
			return nil
		})
	}

	g.Go(func() error {
		defer stream.Close()
		return work(gctx)
	})

	return g.Wait()
}

func logEvents(events <-chan progress.Event, logger *slog.Logger) {
	for e := range events {
		if e.Done {
			logger.Debug("Transfer finished", "operation", e.Operation, "module", e.Module, "key", e.Key, "bytes", e.Bytes)
		}
	}
}
