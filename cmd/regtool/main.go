package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "regtool",
		Short:   "Helpers for testing the marathon registration service",
		Version: Version,
	}

	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(checkoutCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
