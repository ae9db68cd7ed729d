package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/rps-kakaotalk-bot/internal/irisfast"
	"github.com/park285/rps-kakaotalk-bot/internal/rps"
	"github.com/park285/rps-kakaotalk-bot/internal/session"
)

// Command is the word after the prefix that addresses this bot.
const Command = "rps"

// Replier delivers a controller reply to a room.
type Replier interface {
	Reply(room string, reply *session.Reply) error
}

type Config struct {
	Prefix      string
	RoomAllowed func(room string) bool
}

// Router maps chat messages onto controller operations.
type Router struct {
	cfg    Config
	ctrl   *session.Controller
	out    Replier
	texts  session.Texts
	logger *zap.Logger
}

func NewRouter(cfg Config, ctrl *session.Controller, out Replier, texts session.Texts, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{cfg: cfg, ctrl: ctrl, out: out, texts: texts, logger: logger}
}

// Handle processes one inbound message. Messages outside allowed rooms,
// without the prefix or addressed to another command are ignored.
func (r *Router) Handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return
	}
	if r.cfg.RoomAllowed != nil && !r.cfg.RoomAllowed(msg.Room) {
		r.logger.Debug("room_not_allowed", zap.String("room", msg.Room))
		return
	}
	sub, arg, ok := r.parse(msg.Msg)
	if !ok {
		return
	}
	user, name := msg.UserID(), msg.SenderName()
	r.logger.Debug("rps_command", zap.String("room", msg.Room), zap.String("user_id", user), zap.String("sub", sub))

	reply, err := r.dispatch(ctx, user, name, sub, arg)
	if err != nil {
		level := r.logger.Warn
		if !isUserError(err) {
			level = r.logger.Error
		}
		level("rps_command_error", zap.String("room", msg.Room), zap.String("user_id", user), zap.String("sub", sub), zap.Error(err))
	}
	if reply == nil {
		return
	}
	if err := r.out.Reply(msg.Room, reply); err != nil {
		r.logger.Warn("rps_reply_send_error", zap.String("room", msg.Room), zap.Error(err))
	}
}

// parse returns the lower-cased sub-command and its first argument.
// "!rps" alone yields an empty sub-command.
func (r *Router) parse(text string) (sub, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, r.cfg.Prefix) {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(text, r.cfg.Prefix))
	if len(fields) == 0 || !strings.EqualFold(fields[0], Command) {
		return "", "", false
	}
	if len(fields) > 1 {
		sub = strings.ToLower(fields[1])
	}
	if len(fields) > 2 {
		arg = fields[2]
	}
	return sub, arg, true
}

func (r *Router) dispatch(ctx context.Context, user, name, sub, arg string) (*session.Reply, error) {
	switch sub {
	case "", "help", "도움말":
		return r.ctrl.Help(), nil
	case "start", "play", "시작":
		return r.ctrl.Start(ctx, user, name)
	case "cancel", "exit", "stop", "취소", "종료":
		return r.ctrl.Cancel(ctx, user)
	case "reset", "초기화":
		return r.ctrl.Reset(ctx, user, name)
	case "records", "leaderboard", "rank", "기록", "순위":
		return r.ctrl.Records(), nil
	case "result", "me", "stats", "전적":
		return r.ctrl.Result(user), nil
	case "choose", "pick":
		return r.ctrl.Choose(ctx, user, arg)
	}
	if _, err := rps.ParseChoice(sub); err == nil {
		return r.ctrl.Choose(ctx, user, sub)
	}
	// Any number is a selector attempt; out-of-range ids get the
	// invalid-choice reply rather than the unknown-command one.
	if _, err := strconv.Atoi(sub); err == nil {
		return r.ctrl.Choose(ctx, user, sub)
	}
	return &session.Reply{Messages: []session.Message{{
		Text: r.texts.Text("error.unknown_command", map[string]string{"Prefix": r.cfg.Prefix}),
	}}}, nil
}

func isUserError(err error) bool {
	return errors.Is(err, session.ErrNoSession) ||
		errors.Is(err, session.ErrInvalidUser) ||
		errors.Is(err, rps.ErrInvalidChoice)
}
