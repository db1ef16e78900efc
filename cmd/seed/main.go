package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// load .env into os.Environ
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "seed",
		Short:        "Seed the course marketplace database",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(coursesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
