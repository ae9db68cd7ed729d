// Package report renders player records and the leaderboard as chat text.
package report

import (
	"fmt"
	"strings"

	"github.com/park285/rps-kakaotalk-bot/internal/stats"
)

// RecordLine is the one-line summary shown after every round.
func RecordLine(rec stats.PlayerRecord) string {
	return fmt.Sprintf("W: %d F: %d D: %d", rec.Wins, rec.Fails, rec.Draws)
}

// Leaderboard numbers entries from 1 in the given order. Empty input gives
// an empty string; callers print their own "no stats" text.
func Leaderboard(entries []stats.Entry) string {
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, e.Label(), RecordLine(e.Record)))
	}
	return strings.Join(lines, "\n")
}

// Result is the multi-line personal summary.
func Result(user string, rec stats.PlayerRecord) string {
	var sb strings.Builder
	sb.WriteString(user)
	sb.WriteString(fmt.Sprintf("\nWins: %d", rec.Wins))
	sb.WriteString(fmt.Sprintf("\nFails: %d", rec.Fails))
	sb.WriteString(fmt.Sprintf("\nDraws: %d", rec.Draws))
	return sb.String()
}
