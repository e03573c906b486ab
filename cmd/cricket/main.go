package main

import (
	"os"
	"time"

	"cricket-tracker/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:5000"

var (
	serverURL string
	timeout   time.Duration
	verbose   bool

	log zerolog.Logger
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "cricket",
	Short: "Show live, upcoming and recent cricket matches",
	Long: `cricket reads the match feed served by the cricket-tracker server.

Available subcommands:
  matches - Print the matches of one feed
  feeds   - List the feed names the server knows`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log = logger.NewWithWriter(os.Stderr, level)
	},
}

func init() {
	_ = godotenv.Load()

	server := os.Getenv("CRICKET_SERVER")
	if server == "" {
		server = defaultServer
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", server, "Server base URL (or set CRICKET_SERVER env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show the envelope shape and debug logging")

	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(feedsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
