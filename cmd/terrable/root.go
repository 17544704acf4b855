// File: cmd/terrable/root.go
package main

import (
	"context"
	"fmt"
	"os"

	"terrable/internal/config"
	"terrable/internal/flags"

	"github.com/spf13/cobra"
)

// Config keys that can be overridden per invocation, mapped to the flag that overrides them
var flagBindings = map[string]string{
	"provider":      flags.Provider,
	"bucket":        flags.Bucket,
	"prefix":        flags.Prefix,
	"aws.profile":   flags.Profile,
	"aws.directory": flags.AWSDirectory,
}

type rootFlags struct {
	provider     string
	bucket       string
	prefix       string
	profile      string
	awsDirectory string
	output       string
	debug        bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "terrable",
		Short: "Terrable publishes versioned Terraform modules to object storage.",
		Long: `Terrable bundles every module directory into a zip archive and uploads it
as <prefix>/<module>/<version>.zip, but only when the bundle differs from the
latest published version. Published versions can be listed together with the
source URL Terraform needs to consume them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return nil
			}
			return app.Close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.provider, flags.Provider, flags.ProviderShort, config.DefaultProvider, "Object store backend (aws, gcp, minio)")
	pf.StringVarP(&f.bucket, flags.Bucket, flags.BucketShort, "", "Bucket holding the modules")
	pf.StringVar(&f.prefix, flags.Prefix, config.DefaultPrefix, "Key prefix shared by all modules")
	pf.StringVar(&f.profile, flags.Profile, "", "AWS profile used to resolve credentials")
	pf.StringVar(&f.awsDirectory, flags.AWSDirectory, config.DefaultAWSDirectory, "Directory holding the AWS config and credentials files")
	pf.StringVarP(&f.output, flags.Output, flags.OutputShort, "table", "Output format (table, json, yaml)")
	pf.BoolVarP(&f.debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")

	rootCmd.AddCommand(newListCmd(), newPublishCmd(), newConfigCmd())
	return rootCmd
}

// Execute runs the CLI and returns the process exit code
func Execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
