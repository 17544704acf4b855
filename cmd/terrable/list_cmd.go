// File: cmd/terrable/list_cmd.go
package main

import (
	"terrable/internal/flags"
	"terrable/internal/service"

	"github.com/spf13/cobra"
)

type listFlags struct {
	verbose bool
	latest  bool
}

func newListCmd() *cobra.Command {
	f := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list [module]",
		Short: "List published modules and their versions",
		Long: `Lists the modules published under the configured prefix.

Without arguments only module names are shown. --verbose adds every version of
every module, --latest restricts the listing to the newest version of each.
Passing a module name lists that module's versions.`,
		Example: `  terrable list
  terrable list --latest
  terrable list vpc --latest -o json`,
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

			opts := service.ListOptions{Verbose: f.verbose, Latest: f.latest}
			if len(args) == 1 {
				opts.Module = args[0]
			}

			result, err := service.NewListService(cat, app.Logger).List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), app, result)
		},
	}

	cmd.Flags().BoolVarP(&f.verbose, flags.Verbose, flags.VerboseShort, false, "Show every version of every module")
	cmd.Flags().BoolVar(&f.latest, flags.Latest, false, "Show only the latest version")
	return cmd
}
