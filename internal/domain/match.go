package domain

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotAMatch = errors.New("record is not a match")

// Match is the typed view renderers use. Every field is optional upstream.
type Match struct {
	MatchInfo  MatchInfo  `json:"matchInfo"`
	MatchScore MatchScore `json:"matchScore"`
}

type MatchInfo struct {
	MatchID       int64       `json:"matchId"`
	SeriesID      int64       `json:"seriesId"`
	SeriesName    string      `json:"seriesName"`
	MatchDesc     string      `json:"matchDesc"`
	MatchFormat   string      `json:"matchFormat"`
	StartDate     EpochMillis `json:"startDate"`
	EndDate       EpochMillis `json:"endDate"`
	State         string      `json:"state"`
	Status        string      `json:"status"`
	CurrBatTeamID int64       `json:"currBatTeamId"`
	Team1         Team        `json:"team1"`
	Team2         Team        `json:"team2"`
	VenueInfo     Venue       `json:"venueInfo"`
}

type Team struct {
	TeamID    int64  `json:"teamId"`
	TeamName  string `json:"teamName"`
	TeamSName string `json:"teamSName"`
	ImageID   int64  `json:"imageId"`
}

type Venue struct {
	ID       int64  `json:"id"`
	Ground   string `json:"ground"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

type MatchScore struct {
	Team1Score TeamScore `json:"team1Score"`
	Team2Score TeamScore `json:"team2Score"`
}

// TeamScore is keyed by innings ("inngs1", "inngs2").
type TeamScore map[string]Innings

type Innings struct {
	InningsID int     `json:"inningsId"`
	Runs      int     `json:"runs"`
	Wickets   int     `json:"wickets"`
	Overs     float64 `json:"overs"`
}

// EpochMillis accepts epoch milliseconds encoded either as a JSON string
// or as a number.
type EpochMillis int64

func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch millis %q: %w", s, err)
	}
	*e = EpochMillis(v)
	return nil
}

func (e EpochMillis) Time() time.Time {
	if e == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(e)).UTC()
}

// DecodeMatch decodes the typed view of rec. Records that are not objects
// or carry no matchInfo yield ErrNotAMatch.
func DecodeMatch(rec Record) (Match, error) {
	var probe map[string]Record
	if err := codec.Unmarshal(rec, &probe); err != nil || probe == nil {
		return Match{}, ErrNotAMatch
	}
	if _, ok := probe["matchInfo"]; !ok {
		return Match{}, ErrNotAMatch
	}

	var m Match
	if err := codec.Unmarshal(rec, &m); err != nil {
		return Match{}, fmt.Errorf("decode match: %w", err)
	}
	return m, nil
}

func (m Match) BattingTeam() (Team, bool) {
	switch id := m.MatchInfo.CurrBatTeamID; {
	case id == 0:
		return Team{}, false
	case id == m.MatchInfo.Team1.TeamID:
		return m.MatchInfo.Team1, true
	case id == m.MatchInfo.Team2.TeamID:
		return m.MatchInfo.Team2, true
	}
	return Team{}, false
}

func (m Match) Started(now time.Time) bool {
	start := m.MatchInfo.StartDate.Time()
	return !start.IsZero() && !start.After(now)
}

// Innings returns the innings ordered by inningsId, then key.
func (s TeamScore) Innings() []Innings {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s[keys[i]], s[keys[j]]
		if a.InningsID != b.InningsID {
			return a.InningsID < b.InningsID
		}
		return keys[i] < keys[j]
	})

	out := make([]Innings, 0, len(keys))
	for _, k := range keys {
		out = append(out, s[k])
	}
	return out
}

// Summary renders "runs/wickets (overs ov)" per innings joined with " & ".
func (s TeamScore) Summary() string {
	parts := make([]string, 0, len(s))
	for _, inn := range s.Innings() {
		parts = append(parts, fmt.Sprintf("%d/%d (%s ov)", inn.Runs, inn.Wickets, strconv.FormatFloat(inn.Overs, 'f', -1, 64)))
	}
	return strings.Join(parts, " & ")
}
