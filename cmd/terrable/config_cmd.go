// File: cmd/terrable/config_cmd.go
package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"terrable/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent defaults",
		Long: `Manage the defaults stored in ~/.config/terrable/config.yaml (or $TERRABLE_CONFIG).
Flags and TERRABLE_* environment variables override these values for a single run.

Supported keys: ` + strings.Join(config.KnownKeys(), ", "),
	}

	configSetCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Store a configuration value",
		Long:  `Stores a configuration value. For example: 'terrable config set bucket my-modules'`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.ToLower(args[0])
			if err := app.ConfigManager.SetValue(key, args[1]); err != nil {
				return fmt.Errorf("error setting configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration set: %s = %s\n", key, args[1])
			return nil
		},
	}

	configGetCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Show the effective value of a key",
		Long:  `Shows the value a command would use for a key. For example: 'terrable config get aws.profile'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.ToLower(args[0])
			value, known := app.ConfigManager.GetValue(key)
			if !known {
				return fmt.Errorf("unknown config key: %s", key)
			}
			if value == "" {
				return fmt.Errorf("configuration key '%s' is not set", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}

	configDeleteCmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Remove a stored configuration value",
		Long:  `Removes a value from the config file so the default applies again. For example: 'terrable config delete prefix'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.ToLower(args[0])
			deleted, err := app.ConfigManager.DeleteValue(key)
			if err != nil {
				return fmt.Errorf("error deleting configuration: %w", err)
			}
			if !deleted {
				return fmt.Errorf("configuration key '%s' is not stored in %s", key, app.ConfigManager.ConfigPath())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration key '%s' deleted\n", key)
			return nil
		},
	}

	configListCmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			printSettings(cmd.OutOrStdout(), flattenConfigMap(app.ConfigManager.GetAllSettings()))
			return nil
		},
	}

	configCmd.AddCommand(configSetCmd, configGetCmd, configDeleteCmd, configListCmd)
	return configCmd
}

// printSettings writes non-empty settings sorted by key. Secrets are masked
func printSettings(w io.Writer, settings map[string]interface{}) {
	display := make(map[string]interface{})
	for k, v := range settings {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if strings.HasSuffix(k, "secret_key") {
			v = "********"
		}
		display[k] = v
	}

	if len(display) == 0 {
		fmt.Fprintln(w, "No configuration values set. Use 'terrable config set <key> <value>'.")
		return
	}

	keys := make([]string, 0, len(display))
	for k := range display {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "Current configuration:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %v\n", k, display[k])
	}
}

// flattenConfigMap turns viper's nested settings into dot-notation keys
func flattenConfigMap(nested map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{})

	var flatten func(string, interface{})
	flatten = func(prefix string, value interface{}) {
		child, ok := value.(map[string]interface{})
		if !ok {
			if prefix != "" {
				flat[prefix] = value
			}
			return
		}
		for k, v := range child {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, v)
		}
	}

	flatten("", nested)
	return flat
}
