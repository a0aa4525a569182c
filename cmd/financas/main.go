package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "financas",
	Short:         "Import bank exports and organize personal transactions",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64("user", 0, "User id owning imported transactions")
	rootCmd.PersistentFlags().String("driver", "", "Storage driver (memory, mysql)")
	rootCmd.PersistentFlags().String("dsn", "", "MySQL DSN, e.g. user:pass@tcp(localhost:3306)/financas?parseTime=true")

	rootCmd.AddCommand(importCmd, parsersCmd, parseCmd)
	rootCmd.AddCommand(rulesCmd, transactionsCmd, tagsCmd, settingsCmd)
	rootCmd.AddCommand(exportCmd, planCmd, applyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
