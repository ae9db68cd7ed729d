package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/rps-kakaotalk-bot/internal/report"
	"github.com/park285/rps-kakaotalk-bot/internal/rps"
	"github.com/park285/rps-kakaotalk-bot/internal/stats"
	"go.uber.org/zap"
)

type Config struct {
	// Prefix is the bot command prefix used in hints ("!").
	Prefix string
}

// Controller drives the per-user conversation. One mutex covers the session
// map and the load-modify-persist of a round, so rounds never interleave.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store    *stats.Store
	resolver *rps.Resolver
	texts    Texts
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewController(store *stats.Store, resolver *rps.Resolver, texts Texts, cfg Config, logger *zap.Logger) *Controller {
	if resolver == nil {
		resolver = rps.NewResolver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		sessions: make(map[string]*Session),
		store:    store,
		resolver: resolver,
		texts:    texts,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// State reports the conversation state of user. Users without a session,
// including those who just cancelled or reset, are Idle.
func (c *Controller) State(user string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[strings.TrimSpace(user)]; ok {
		return s.State
	}
	return StateIdle
}

// Session returns a copy of the user's session, if any.
func (c *Controller) Session(user string) (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[strings.TrimSpace(user)]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Start creates the user's record on first play and opens (or re-anchors)
// the session.
func (c *Controller) Start(ctx context.Context, user, name string) (*Reply, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return (&Reply{}).text(c.t("error.no_user", nil)), ErrInvalidUser
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, created, err := c.store.Ensure(ctx, user, name)
	if err != nil {
		c.logger.Error("rps_start_error", zap.String("user_id", user), zap.Error(err))
		return (&Reply{}).text(c.t("error.storage", nil)), err
	}
	sess := &Session{ID: uuid.NewString(), User: user, State: StateAwaiting, StartedAt: c.now()}
	prev := c.sessions[user]
	c.sessions[user] = sess
	c.logger.Info("rps_start",
		zap.String("user_id", user),
		zap.String("session_id", sess.ID),
		zap.Bool("new_player", created),
		zap.Bool("reentry", prev != nil && prev.State == StateAwaiting),
	)

	r := (&Reply{}).text(c.t("game.start", nil))
	r.Messages = append(r.Messages, c.prompt())
	return r, nil
}

// Choose plays one round for user. raw is the selector id or symbol name.
func (c *Controller) Choose(ctx context.Context, user, raw string) (*Reply, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return (&Reply{}).text(c.t("error.no_user", nil)), ErrInvalidUser
	}
	choice, err := rps.ParseChoice(raw)
	if err != nil {
		return (&Reply{}).text(c.t("error.invalid_choice", nil)), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[user]
	if !ok || sess.State != StateAwaiting {
		c.logger.Warn("rps_choice_without_session", zap.String("user_id", user), zap.String("choice", choice.String()))
		return (&Reply{}).text(c.t("error.no_session", nil)), ErrNoSession
	}

	round, err := c.resolver.Resolve(choice)
	if err != nil {
		return (&Reply{}).text(c.t("error.invalid_choice", nil)), err
	}
	rec, err := c.store.Update(ctx, user, func(r *stats.PlayerRecord) error { return r.Apply(round.Outcome) })
	if errors.Is(err, stats.ErrNoRecord) {
		c.logger.Warn("rps_choice_without_record", zap.String("user_id", user), zap.String("session_id", sess.ID))
		return (&Reply{}).text(c.t("error.no_session", nil)), err
	}
	if err != nil {
		c.logger.Error("rps_round_persist_error", zap.String("user_id", user), zap.String("session_id", sess.ID), zap.Error(err))
		return (&Reply{}).text(c.t("error.storage", nil)), err
	}
	sess.Rounds++
	c.logger.Info("rps_round",
		zap.String("user_id", user),
		zap.String("session_id", sess.ID),
		zap.String("player", round.Player.String()),
		zap.String("system", round.System.String()),
		zap.String("outcome", string(round.Outcome)),
		zap.Int("rounds", sess.Rounds),
	)

	r := &Reply{Round: &round}
	r.text(c.t("round."+string(round.Outcome), map[string]string{
		"Player": c.label(round.Player),
		"System": c.label(round.System),
	}))
	r.text(report.RecordLine(rec))
	r.Messages = append(r.Messages, c.prompt())
	return r, nil
}

// Cancel ends the session without touching stats.
func (c *Controller) Cancel(ctx context.Context, user string) (*Reply, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return (&Reply{}).text(c.t("error.no_user", nil)), ErrInvalidUser
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	from := c.endLocked(user)
	c.logger.Info("rps_cancel", zap.String("user_id", user), zap.String("from", string(from)), zap.String("to", string(StateEnded)))
	return (&Reply{}).text(c.t("game.cancel", nil)), nil
}

// Reset zeroes the user's counters, persists, then ends the session. The
// record is kept (created if missing), so results show zeros afterwards.
func (c *Controller) Reset(ctx context.Context, user, name string) (*Reply, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return (&Reply{}).text(c.t("error.no_user", nil)), ErrInvalidUser
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := stats.PlayerRecord{Name: strings.TrimSpace(name)}
	if rec.Name == "" {
		if cur, ok := c.store.Get(user); ok {
			rec.Name = cur.Name
		}
	}
	if err := c.store.Upsert(ctx, user, rec); err != nil {
		c.logger.Error("rps_reset_error", zap.String("user_id", user), zap.Error(err))
		return (&Reply{}).text(c.t("error.storage", nil)), err
	}
	from := c.endLocked(user)
	c.logger.Info("rps_reset", zap.String("user_id", user), zap.String("from", string(from)), zap.String("to", string(StateEnded)))
	return (&Reply{}).text(c.t("game.reset", nil)), nil
}

// Result shows the user's own counters.
func (c *Controller) Result(user string) *Reply {
	user = strings.TrimSpace(user)
	rec, ok := c.store.Get(user)
	if !ok {
		return (&Reply{}).text(c.t("stats.none_user", nil))
	}
	label := rec.Name
	if label == "" {
		label = user
	}
	return (&Reply{}).text(report.Result(label, rec))
}

// Records shows every player ranked.
func (c *Controller) Records() *Reply {
	entries := c.store.Leaderboard()
	if len(entries) == 0 {
		return (&Reply{}).text(c.t("stats.none_all", nil))
	}
	return (&Reply{}).text(c.t("stats.records_title", nil) + "\n" + report.Leaderboard(entries))
}

// Help lists the commands.
func (c *Controller) Help() *Reply {
	return (&Reply{}).text(c.t("help", nil))
}

// endLocked moves the user to Ended and discards the session; the next start
// begins from Idle. It returns the state the user left.
func (c *Controller) endLocked(user string) State {
	from := StateIdle
	if s, ok := c.sessions[user]; ok {
		from = s.State
		delete(c.sessions, user)
	}
	return from
}

func (c *Controller) prompt() Message {
	opts := make([]Option, 0, 3)
	for _, ch := range rps.Choices() {
		opts = append(opts, Option{ID: ch.ID(), Label: c.label(ch)})
	}
	return Message{Text: c.t("prompt.title", nil), Choices: opts, Hint: c.t("prompt.hint", nil)}
}

func (c *Controller) label(ch rps.Choice) string {
	return c.t("choice."+strings.ToLower(ch.String()), nil)
}

// t renders key with the prefix merged into data.
func (c *Controller) t(key string, data map[string]string) string {
	if c.texts == nil {
		return key
	}
	vars := map[string]string{"Prefix": c.cfg.Prefix}
	for k, v := range data {
		vars[k] = v
	}
	return c.texts.Text(key, vars)
}
