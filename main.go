package main

import (
	"os"

	"github.com/BishopFox/devopsfox/cli"
	"github.com/BishopFox/devopsfox/globals"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:     os.Args[0],
		Version: globals.DEVOPSFOX_VERSION,
	}
)

func main() {
	rootCmd.AddCommand(cli.DevOpsCommands)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
