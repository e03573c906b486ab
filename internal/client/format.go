package client

import (
	"fmt"
	"strings"
	"time"

	"cricket-tracker/internal/domain"
)

func teamLabel(t domain.Team) string {
	switch {
	case t.TeamSName != "":
		return t.TeamSName
	case t.TeamName != "":
		return t.TeamName
	}
	return "TBD"
}

// FormatMatch renders one line: teams, scores, then status or start time.
func FormatMatch(m domain.Match, now time.Time) string {
	info := m.MatchInfo

	var b strings.Builder
	b.WriteString(teamLabel(info.Team1))
	if s := m.MatchScore.Team1Score.Summary(); s != "" {
		fmt.Fprintf(&b, " %s", s)
	}
	b.WriteString(" vs ")
	b.WriteString(teamLabel(info.Team2))
	if s := m.MatchScore.Team2Score.Summary(); s != "" {
		fmt.Fprintf(&b, " %s", s)
	}

	if info.MatchDesc != "" || info.MatchFormat != "" {
		fmt.Fprintf(&b, " [%s]", strings.TrimSpace(info.MatchDesc+" "+info.MatchFormat))
	}

	switch {
	case info.Status != "":
		fmt.Fprintf(&b, " - %s", info.Status)
	case !m.Started(now) && !info.StartDate.Time().IsZero():
		fmt.Fprintf(&b, " - starts %s", info.StartDate.Time().Format("Mon 02 Jan 15:04 MST"))
	case info.State != "":
		fmt.Fprintf(&b, " - %s", info.State)
	}

	if team, ok := m.BattingTeam(); ok && m.Started(now) {
		fmt.Fprintf(&b, " (%s batting)", teamLabel(team))
	}
	return b.String()
}

// FormatRecords renders each record that decodes as a match. Records that
// are not matches are skipped; the count of skipped records is returned.
func FormatRecords(records []domain.Record, now time.Time) (lines []string, skipped int) {
	lines = make([]string, 0, len(records))
	for _, rec := range records {
		m, err := domain.DecodeMatch(rec)
		if err != nil {
			skipped++
			continue
		}
		lines = append(lines, FormatMatch(m, now))
	}
	return lines, skipped
}
