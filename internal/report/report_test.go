package report

import (
	"testing"

	"github.com/park285/rps-kakaotalk-bot/internal/stats"
)

func TestRecordLine(t *testing.T) {
	got := RecordLine(stats.PlayerRecord{Wins: 3, Fails: 1, Draws: 12})
	if got != "W: 3 F: 1 D: 12" {
		t.Fatalf("RecordLine=%q", got)
	}
}

func TestLeaderboard(t *testing.T) {
	entries := []stats.Entry{
		{User: "c", Record: stats.PlayerRecord{Wins: 5, Fails: 5, Name: "Carol"}},
		{User: "b", Record: stats.PlayerRecord{Wins: 3}},
	}
	want := "1. Carol: W: 5 F: 5 D: 0\n2. b: W: 3 F: 0 D: 0"
	if got := Leaderboard(entries); got != want {
		t.Fatalf("Leaderboard=\n%s\nwant\n%s", got, want)
	}
	if got := Leaderboard(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestResult(t *testing.T) {
	want := "kim\nWins: 0\nFails: 0\nDraws: 0"
	if got := Result("kim", stats.PlayerRecord{}); got != want {
		t.Fatalf("Result=%q want %q", got, want)
	}
}
