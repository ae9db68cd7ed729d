package rps

import (
	"errors"
	"strconv"
	"strings"
)

// Choice is one of the three symbols. The numeric value doubles as the
// opaque selector id sent to the chat ("1", "2", "3").
type Choice int

const (
	Rock     Choice = 1
	Scissors Choice = 2
	Paper    Choice = 3
)

var ErrInvalidChoice = errors.New("invalid choice")

func (c Choice) Valid() bool { return c >= Rock && c <= Paper }

func (c Choice) String() string {
	switch c {
	case Rock:
		return "Rock"
	case Scissors:
		return "Scissors"
	case Paper:
		return "Paper"
	default:
		return "Choice(" + strconv.Itoa(int(c)) + ")"
	}
}

// ID returns the selector id used in chat commands.
func (c Choice) ID() string { return strconv.Itoa(int(c)) }

// Choices returns all symbols in selector order.
func Choices() []Choice { return []Choice{Rock, Scissors, Paper} }

// ParseChoice accepts selector ids and symbol names.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "rock", "stone", "r", "바위", "주먹":
		return Rock, nil
	case "2", "scissors", "s", "가위":
		return Scissors, nil
	case "3", "paper", "p", "보":
		return Paper, nil
	default:
		return 0, ErrInvalidChoice
	}
}

// Outcome is the result of a round from the player's side.
type Outcome string

const (
	Win  Outcome = "win"
	Fail Outcome = "fail"
	Draw Outcome = "draw"
)

// Round is one resolved player-vs-system exchange.
type Round struct {
	Player  Choice
	System  Choice
	Outcome Outcome
}
