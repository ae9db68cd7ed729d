package rps

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Decide classifies a round by the index distance between the two symbols.
func Decide(player, system Choice) (Outcome, error) {
	if !player.Valid() || !system.Valid() {
		return "", ErrInvalidChoice
	}
	switch int(system) - int(player) {
	case 0:
		return Draw, nil
	case 1, -2:
		return Win, nil
	default: // 2, -1
		return Fail, nil
	}
}

// Resolver draws the system symbol and decides the round. It keeps no state
// between rounds.
type Resolver struct {
	draw func() Choice
}

type Option func(*Resolver)

// WithDraw replaces the random draw, mainly for tests.
func WithDraw(fn func() Choice) Option {
	return func(r *Resolver) { r.draw = fn }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{draw: secureDraw}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(player Choice) (Round, error) {
	if !player.Valid() {
		return Round{}, ErrInvalidChoice
	}
	system := r.draw()
	out, err := Decide(player, system)
	if err != nil {
		return Round{}, err
	}
	return Round{Player: player, System: system, Outcome: out}, nil
}

func secureDraw() Choice {
	n, err := rand.Int(rand.Reader, big.NewInt(3))
	if err != nil || n == nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("rps: random source unavailable: %v", err))
	}
	return Choice(n.Int64() + 1)
}

