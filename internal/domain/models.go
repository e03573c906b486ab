package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is one match as delivered by the upstream API. It is carried
// end to end without being inspected; only renderers decode it.
type Record = json.RawMessage

type Feed string

const (
	FeedLive     Feed = "live"
	FeedUpcoming Feed = "upcoming"
	FeedRecent   Feed = "recent"
)

var ErrUnknownFeed = errors.New("unknown feed")

func Feeds() []Feed {
	return []Feed{FeedLive, FeedUpcoming, FeedRecent}
}

func ParseFeed(s string) (Feed, error) {
	switch f := Feed(strings.ToLower(strings.TrimSpace(s))); f {
	case FeedLive, FeedUpcoming, FeedRecent:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeed, s)
}

type Snapshot struct {
	ID         string // nanoid
	Feed       Feed
	MatchCount int
	Payload    []byte // extracted records as a JSON array
	RequestID  string
	FetchedAt  time.Time
}
