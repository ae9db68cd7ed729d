package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Store caches the document in memory and writes it through the backend on
// every mutation. The cache only changes after the backend accepted the new
// document.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	doc     Document
	closed  bool
	logger  *zap.Logger
}

// Open loads the document once and returns a ready store.
func Open(ctx context.Context, backend Backend, logger *zap.Logger) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("nil stats backend")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{backend: backend, logger: logger}
	if _, err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load re-reads the backend and replaces the cache. The returned mapping is
// a copy.
func (s *Store) Load(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	doc, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	s.doc = doc
	return doc.Clone(), nil
}

func (s *Store) Get(user string) (PlayerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.doc[normUser(user)]
	return rec, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc)
}

// Upsert writes rec for user and flushes the whole document before returning.
func (s *Store) Upsert(ctx context.Context, user string, rec PlayerRecord) error {
	user = normUser(user)
	if user == "" {
		return ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, user, rec)
}

// Ensure creates a zero record for user when none exists. created reports
// whether a write happened.
func (s *Store) Ensure(ctx context.Context, user, name string) (rec PlayerRecord, created bool, err error) {
	user = normUser(user)
	if user == "" {
		return PlayerRecord{}, false, ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.doc[user]; ok {
		return cur, false, nil
	}
	rec = PlayerRecord{Name: strings.TrimSpace(name)}
	if err := s.commitLocked(ctx, user, rec); err != nil {
		return PlayerRecord{}, false, err
	}
	return rec, true, nil
}

// Update runs fn on a copy of the user's record and persists the result.
// Nothing changes when fn or the flush fails.
func (s *Store) Update(ctx context.Context, user string, fn func(*PlayerRecord) error) (PlayerRecord, error) {
	user = normUser(user)
	if user == "" {
		return PlayerRecord{}, ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.doc[user]
	if !ok {
		return PlayerRecord{}, ErrNoRecord
	}
	if err := fn(&cur); err != nil {
		return PlayerRecord{}, err
	}
	if err := s.commitLocked(ctx, user, cur); err != nil {
		return PlayerRecord{}, err
	}
	return cur, nil
}

// Leaderboard ranks every record: wins descending, then fails ascending,
// then user id.
func (s *Store) Leaderboard() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.doc))
	for user, rec := range s.doc {
		out = append(out, Entry{User: user, Record: rec})
	}
	s.mu.RUnlock()
	SortEntries(out)
	return out
}

func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Record, entries[j].Record
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Fails != b.Fails {
			return a.Fails < b.Fails
		}
		return entries[i].User < entries[j].User
	})
}

// Close flushes the cache one last time and releases the backend.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var flushErr error
	if s.doc != nil {
		if err := s.backend.Save(ctx, s.doc.Clone()); err != nil {
			s.logger.Error("stats_final_flush_error", zap.Error(err))
			flushErr = fmt.Errorf("final flush: %w", err)
		}
	}
	if err := s.backend.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}

func (s *Store) commitLocked(ctx context.Context, user string, rec PlayerRecord) error {
	if s.closed {
		return ErrStoreClosed
	}
	next := s.doc.Clone()
	next[user] = rec
	if err := s.backend.Save(ctx, next); err != nil {
		s.logger.Error("stats_flush_error", zap.String("user_id", user), zap.Error(err))
		return fmt.Errorf("persist stats: %w", err)
	}
	s.doc = next
	return nil
}

func normUser(user string) string { return strings.TrimSpace(user) }
