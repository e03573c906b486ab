package config

import (
	"fmt"
	"os"
	"strings"

	"cricket-tracker/internal/domain"

	"gopkg.in/yaml.v3"
)

// feedsFile is the FEEDS_FILE layout:
//
//	feeds:
//	  live: /matches/v1/live
//	  recent: /matches/v1/recent
type feedsFile struct {
	Feeds map[string]string `yaml:"feeds"`
}

func LoadFeeds(path string) (map[domain.Feed]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	feeds := make(map[domain.Feed]string, len(file.Feeds))
	for name, upstream := range file.Feeds {
		feed, err := domain.ParseFeed(name)
		if err != nil {
			return nil, err
		}
		upstream = strings.TrimSpace(upstream)
		if !strings.HasPrefix(upstream, "/") {
			return nil, fmt.Errorf("feed %s: upstream path %q must start with /", feed, upstream)
		}
		feeds[feed] = upstream
	}
	return feeds, nil
}
