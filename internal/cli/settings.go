package cli

import (
	"fmt"
	"os"

	"github.com/scbrown/cargo-sleek/internal/config"
	"github.com/spf13/cobra"
)

// The command is "settings" because "cargo config" is a cargo subcommand and
// must keep passing through.
var settingsCmd = &cobra.Command{
	Use:   "settings [key] [value]",
	Short: "Show or modify configuration",
	Long: `View or change cargo-sleek configuration stored in ~/.cargo-sleek/config.toml.

With no arguments, shows all configuration settings.
With one argument, shows the value of that key.
With two arguments, sets the key to the given value.

Settings:
  stats_path      Path to the statistics file
  store_mode      Statistics backend: "file" (JSON) or "sqlite"
  key_mode        Record usage per subcommand ("command") or per full command line ("full")
  tool            Build tool to run (default "cargo")
  target_dir      Build output directory (default "target")
  report_path     Where build-time saves cargo's output
  analyzer        Default check-deps analyzer: "line" or "toml"
  default_format  Default output format: "table" or "json"
  log_level       Diagnostic level: debug, info, warn, error`,
	Example: `  cargo-sleek settings
  cargo-sleek settings key_mode
  cargo-sleek settings key_mode full
  cargo-sleek settings store_mode sqlite`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			return showSettings(cfg)
		case 1:
			return getSetting(cfg, args[0])
		default:
			return setSetting(cfg, args[0], args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func showSettings(c *config.Config) error {
	if jsonOutput {
		return writeJSON(os.Stdout, c)
	}

	tbl := NewTable(os.Stdout, "KEY", "VALUE")
	for _, key := range config.ValidKeys() {
		val, _ := c.Get(key)
		if val == "" {
			val = "(not set)"
		}
		tbl.Row(key, val)
	}
	return tbl.Flush()
}

func getSetting(c *config.Config, key string) error {
	val, err := c.Get(key)
	if err != nil {
		return err
	}
	if val == "" {
		return nil
	}
	fmt.Println(val)
	return nil
}

func setSetting(c *config.Config, key, value string) error {
	if err := c.Set(key, value); err != nil {
		return err
	}
	if err := c.SaveTo(configPath); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
