package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "draft-worker",
	Short: "Proposal draft generation worker",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
