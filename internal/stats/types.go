package stats

import (
	"context"
	"errors"

	"github.com/park285/rps-kakaotalk-bot/internal/rps"
)

var (
	ErrNoRecord     = errors.New("no stats record for user")
	ErrInvalidUser  = errors.New("empty user id")
	ErrStoreClosed  = errors.New("stats store closed")
	ErrUnknownKind  = errors.New("unknown stats backend")
	ErrMissingParam = errors.New("missing stats backend parameter")
)

// PlayerRecord is the durable counter triple for one user. Name is the last
// display name seen for the user and is informational only.
type PlayerRecord struct {
	Wins  uint   `json:"win"`
	Fails uint   `json:"fail"`
	Draws uint   `json:"draw"`
	Name  string `json:"name,omitempty"`
}

// Apply increments exactly one counter.
func (r *PlayerRecord) Apply(out rps.Outcome) error {
	switch out {
	case rps.Win:
		r.Wins++
	case rps.Fail:
		r.Fails++
	case rps.Draw:
		r.Draws++
	default:
		return rps.ErrInvalidChoice
	}
	return nil
}

func (r PlayerRecord) Total() uint { return r.Wins + r.Fails + r.Draws }

// Document is the persisted layout: user id -> record.
type Document map[string]PlayerRecord

func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Entry is one leaderboard row.
type Entry struct {
	User   string
	Record PlayerRecord
}

// Label is what the leaderboard prints for the row.
func (e Entry) Label() string {
	if e.Record.Name != "" {
		return e.Record.Name
	}
	return e.User
}

// Backend persists the whole document. Load creates an empty document when
// none exists; Save replaces the stored document atomically.
type Backend interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	Close() error
}
