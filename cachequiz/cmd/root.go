// Package cmd provides the command-line interface for cachequiz.
package cmd

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables read by the commands. They may also be set in a
// .env file in the working directory.
const (
	envPort   = "CACHEQUIZ_PORT"
	envRecord = "CACHEQUIZ_RECORD"
	envSeed   = "CACHEQUIZ_SEED"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachequiz",
	Short: "cachequiz generates and grades cache-memory exercises.",
	Long: `cachequiz generates cache-memory exercises: a random memory, a ` +
		`set-associative write-back cache with an initial fill, and an ` +
		`access trace whose simulated outcomes form the answer key. It can ` +
		`also grade submissions and serve exercises over HTTP.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A missing .env file is fine.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func envInt(name string, fallback int64) int64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}

	return n
}
