package main

import (
	"context"
	"fmt"
	"time"

	"cricket-tracker/internal/client"
	"cricket-tracker/internal/domain"

	"github.com/spf13/cobra"
)

// matchesCmd prints one feed
var matchesCmd = &cobra.Command{
	Use:       "matches [live|upcoming|recent]",
	Short:     "Print the matches of one feed",
	Long:      `Fetch a feed from the server and print one line per match. The feed defaults to live.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(domain.FeedLive), string(domain.FeedUpcoming), string(domain.FeedRecent)},
	RunE:      runMatches,
}

// feedsCmd lists the known feeds
var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List the feed names",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, feed := range domain.Feeds() {
			fmt.Fprintln(cmd.OutOrStdout(), feed)
		}
	},
}

func runMatches(cmd *cobra.Command, args []string) error {
	feed := domain.FeedLive
	if len(args) == 1 {
		parsed, err := domain.ParseFeed(args[0])
		if err != nil {
			return err
		}
		feed = parsed
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, err := client.New(serverURL).Fetch(ctx, feed)
	if err != nil {
		log.Debug().Err(err).Str("server", serverURL).Str("feed", string(feed)).Msg("fetch failed")
		return fmt.Errorf("failed to fetch %s matches: %w", feed, err)
	}

	return printResult(cmd, res)
}

func printResult(cmd *cobra.Command, res *client.Result) error {
	out := cmd.OutOrStdout()

	if verbose {
		fmt.Fprintf(out, "shape: %s, records: %d\n", res.Shape, len(res.Matches))
	}

	lines, skipped := client.FormatRecords(res.Matches, res.FetchedAt)
	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("records without matchInfo")
	}

	if len(lines) == 0 {
		fmt.Fprintf(out, "No %s matches right now.\n", res.Feed)
	} else {
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	}

	fmt.Fprintf(out, "Last updated %s\n", res.FetchedAt.Local().Format(time.Kitchen))
	return nil
}
