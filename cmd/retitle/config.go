package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/retitle/internal/config"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored settings",
	Long: `Show or change the stored settings.

Usage:
  retitle config                 # Show all settings
  retitle config get style       # Get one value
  retitle config set style suffix

Keys:
  style          Year placement in names (prefix, suffix)
  maxlen         Longest allowed filename, extension included
  pages          Pages of body text to read per document
  workers        Preview worker count
  unmatched-dir  Folder for files without a usable title
  crossref       DOI registry lookups (true, false)
  mailto         Contact address for the Crossref polite pool
  timeout        Crossref request timeout in seconds
  rate-limit     Crossref requests per second
  log-level      debug, info, warn, error
  log-format     text, json`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// UpdateResponse is the JSON payload for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if jsonOutput {
		values := make(map[string]string, len(config.Keys()))
		for _, key := range config.Keys() {
			value, err := cfg.Get(key)
			if err != nil {
				exitWithError(ExitError, "%v", err)
			}
			values[key] = value
		}
		return outputJSON(values)
	}

	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		fmt.Printf("%-14s %s\n", key, value)
	}
	fmt.Printf("\nconfig file: %s\n", config.Path())
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	value, err := cfg.Get(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if jsonOutput {
		return outputJSON(map[string]string{config.NormalizeKey(args[0]): value})
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	key, value := args[0], args[1]
	if err := cfg.Set(key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if jsonOutput {
		return outputJSON(UpdateResponse{
			Status: "updated",
			Key:    config.NormalizeKey(key),
			Value:  value,
		})
	}
	fmt.Printf("Updated %s to %s\n", config.NormalizeKey(key), value)
	return nil
}
