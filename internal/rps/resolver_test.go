package rps

import (
	"errors"
	"testing"
)

func TestDecidePartitionsAllPairs(t *testing.T) {
	counts := map[Outcome]int{}
	for _, p := range Choices() {
		for _, s := range Choices() {
			out, err := Decide(p, s)
			if err != nil {
				t.Fatalf("Decide(%v,%v): %v", p, s, err)
			}
			counts[out]++
			if p == s && out != Draw {
				t.Fatalf("Decide(%v,%v)=%s, want draw", p, s, out)
			}
		}
	}
	if counts[Win] != 3 || counts[Fail] != 3 || counts[Draw] != 3 {
		t.Fatalf("unexpected partition: %v", counts)
	}
}

func TestDecideSwapInvertsOutcome(t *testing.T) {
	for _, p := range Choices() {
		for _, s := range Choices() {
			a, _ := Decide(p, s)
			b, _ := Decide(s, p)
			switch a {
			case Win:
				if b != Fail {
					t.Fatalf("(%v,%v) win but swapped is %s", p, s, b)
				}
			case Fail:
				if b != Win {
					t.Fatalf("(%v,%v) fail but swapped is %s", p, s, b)
				}
			case Draw:
				if b != Draw {
					t.Fatalf("(%v,%v) draw but swapped is %s", p, s, b)
				}
			}
		}
	}
}

func TestDecideBeatsRelation(t *testing.T) {
	cases := []struct {
		player, system Choice
		want           Outcome
	}{
		{Rock, Scissors, Win},
		{Scissors, Paper, Win},
		{Paper, Rock, Win},
		{Scissors, Rock, Fail},
		{Paper, Scissors, Fail},
		{Rock, Paper, Fail},
	}
	for _, tc := range cases {
		got, err := Decide(tc.player, tc.system)
		if err != nil || got != tc.want {
			t.Fatalf("Decide(%v,%v)=%s,%v want %s", tc.player, tc.system, got, err, tc.want)
		}
	}
}

func TestDecideRejectsOutOfRange(t *testing.T) {
	if _, err := Decide(Choice(0), Rock); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
	if _, err := Decide(Rock, Choice(4)); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestResolveUsesInjectedDraw(t *testing.T) {
	r := NewResolver(WithDraw(func() Choice { return Paper }))
	round, err := r.Resolve(Scissors)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if round.System != Paper || round.Outcome != Win {
		t.Fatalf("unexpected round: %+v", round)
	}
	if _, err := r.Resolve(Choice(7)); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestResolveDefaultDrawStaysInRange(t *testing.T) {
	r := NewResolver()
	seen := map[Choice]bool{}
	for i := 0; i < 300; i++ {
		round, err := r.Resolve(Rock)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !round.System.Valid() {
			t.Fatalf("system choice out of range: %d", round.System)
		}
		seen[round.System] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected all three symbols to be drawn, saw %v", seen)
	}
}

func TestParseChoice(t *testing.T) {
	ok := map[string]Choice{"1": Rock, " 2 ": Scissors, "3": Paper, "Stone": Rock, "PAPER": Paper, "가위": Scissors}
	for in, want := range ok {
		got, err := ParseChoice(in)
		if err != nil || got != want {
			t.Fatalf("ParseChoice(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "0", "4", "lizard", "-1"} {
		if _, err := ParseChoice(in); !errors.Is(err, ErrInvalidChoice) {
			t.Fatalf("ParseChoice(%q) expected ErrInvalidChoice, got %v", in, err)
		}
	}
}
