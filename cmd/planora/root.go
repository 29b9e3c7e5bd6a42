package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/version"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "planora",
	Short: "AI project management backend",
	Long: `Planora is a project-management backend with an AI assistant core.

It serves CRUD APIs over users, projects, tasks, and comments, plus AI
endpoints that classify requests, run a tool-calling assistant workflow
against the project database, and break free-text descriptions into
actionable task proposals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("planora version %s\n", version.Get())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: XDG config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}
