package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/rps-kakaotalk-bot/internal/adapter/rpspresenter"
	"github.com/park285/rps-kakaotalk-bot/internal/irisfast"
	"github.com/park285/rps-kakaotalk-bot/internal/msgcat"
	"github.com/park285/rps-kakaotalk-bot/internal/rps"
	"github.com/park285/rps-kakaotalk-bot/internal/session"
	"github.com/park285/rps-kakaotalk-bot/internal/stats"
)

type sent struct {
	room string
	text string
}

type outbox struct {
	mu   sync.Mutex
	msgs []sent
}

func (o *outbox) send(room, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, sent{room, text})
	return nil
}

func (o *outbox) drain() []sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.msgs
	o.msgs = nil
	return out
}

// savesCounter counts successful document writes.
type savesCounter struct {
	stats.Backend
	mu sync.Mutex
	n  int
}

func (c *savesCounter) Save(ctx context.Context, doc stats.Document) error {
	if err := c.Backend.Save(ctx, doc); err != nil {
		return err
	}
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}

func (c *savesCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newRouter(t *testing.T, allowed ...string) (*Router, *stats.Store, *outbox, *savesCounter) {
	t.Helper()
	ctx := context.Background()
	fb, err := stats.NewFileBackend(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	saves := &savesCounter{Backend: fb}
	store, err := stats.Open(ctx, saves, nil)
	if err != nil {
		t.Fatalf("stats.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	// The system always throws Scissors.
	resolver := rps.NewResolver(rps.WithDraw(func() rps.Choice { return rps.Scissors }))
	ctrl := session.NewController(store, resolver, cat, session.Config{Prefix: "!"}, nil)

	box := &outbox{}
	cfg := Config{Prefix: "!"}
	if len(allowed) > 0 {
		cfg.RoomAllowed = func(room string) bool {
			for _, r := range allowed {
				if r == room {
					return true
				}
			}
			return false
		}
	}
	return NewRouter(cfg, ctrl, rpspresenter.NewPresenter(box.send, nil), cat, nil), store, box, saves
}

func msg(room, user, text string) *irisfast.Message {
	name := "name-" + user
	return &irisfast.Message{Msg: text, Room: room, Sender: &name, JSON: &irisfast.MessageJSON{UserID: user}}
}

func TestRouterPlaysAGame(t *testing.T) {
	r, store, box, _ := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, msg("room", "u1", "!rps start"))
	out := box.drain()
	if len(out) != 2 || out[0].text != "Let's play" || !strings.HasPrefix(out[1].text, "Make your choice\n1️⃣ Rock") {
		t.Fatalf("start replies: %+v", out)
	}

	r.Handle(ctx, msg("room", "u1", "!rps 1"))
	out = box.drain()
	if len(out) != 3 {
		t.Fatalf("round replies: %+v", out)
	}
	if out[0].text != "You win! Rock vs Scissors" || out[1].text != "W: 1 F: 0 D: 0" {
		t.Fatalf("round text: %q / %q", out[0].text, out[1].text)
	}
	for _, m := range out {
		if m.room != "room" {
			t.Fatalf("reply went to %q", m.room)
		}
	}

	r.Handle(ctx, msg("room", "u1", "!RPS paper"))
	r.Handle(ctx, msg("room", "u1", "!rps choose 2"))
	box.drain()

	rec, ok := store.Get("u1")
	if !ok {
		t.Fatalf("no record for u1")
	}
	want := stats.PlayerRecord{Wins: 1, Fails: 1, Draws: 1, Name: "name-u1"}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	r.Handle(ctx, msg("room", "u1", "!rps cancel"))
	r.Handle(ctx, msg("room", "u1", "!rps 1"))
	out = box.drain()
	if len(out) != 2 || out[0].text != "Exit game" || !strings.HasPrefix(out[1].text, "No game in progress.") {
		t.Fatalf("after cancel: %+v", out)
	}
}

func TestRouterIgnoresForeignTraffic(t *testing.T) {
	r, _, box, _ := newRouter(t, "allowed")
	ctx := context.Background()

	r.Handle(ctx, nil)
	r.Handle(ctx, msg("allowed", "u1", "   "))
	r.Handle(ctx, msg("allowed", "u1", "rps start"))
	r.Handle(ctx, msg("allowed", "u1", "!chess start"))
	r.Handle(ctx, msg("other", "u1", "!rps start"))
	if out := box.drain(); len(out) != 0 {
		t.Fatalf("expected no replies, got %+v", out)
	}

	r.Handle(ctx, msg("allowed", "u1", "!rps start"))
	if out := box.drain(); len(out) == 0 {
		t.Fatalf("allowed room got no reply")
	}
}

func TestRouterHelpAndUnknown(t *testing.T) {
	r, _, box, _ := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, msg("room", "u1", "!rps"))
	out := box.drain()
	if len(out) != 1 || !strings.Contains(out[0].text, "!rps start") {
		t.Fatalf("help: %+v", out)
	}

	r.Handle(ctx, msg("room", "u1", "!rps dance"))
	out = box.drain()
	if len(out) != 1 || out[0].text != "Unknown command. Try `!rps help`." {
		t.Fatalf("unknown: %+v", out)
	}
}

func TestRouterResultAndRecords(t *testing.T) {
	r, _, box, _ := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, msg("room", "u1", "!rps result"))
	r.Handle(ctx, msg("room", "u1", "!rps records"))
	out := box.drain()
	if len(out) != 2 || !strings.HasPrefix(out[0].text, "No stats for you") || !strings.HasPrefix(out[1].text, "No stats,") {
		t.Fatalf("sentinels: %+v", out)
	}

	r.Handle(ctx, msg("room", "u1", "!rps start"))
	r.Handle(ctx, msg("room", "u1", "!rps rock"))
	r.Handle(ctx, msg("room", "u2", "!rps start"))
	r.Handle(ctx, msg("room", "u2", "!rps paper"))
	box.drain()

	r.Handle(ctx, msg("room", "u1", "!rps me"))
	r.Handle(ctx, msg("room", "u2", "!rps leaderboard"))
	out = box.drain()
	if len(out) != 2 {
		t.Fatalf("replies: %+v", out)
	}
	if out[0].text != "name-u1\nWins: 1\nFails: 0\nDraws: 0" {
		t.Fatalf("result=%q", out[0].text)
	}
	wantBoard := "🏆 Rock-paper-scissors records\n1. name-u1: W: 1 F: 0 D: 0\n2. name-u2: W: 0 F: 1 D: 0"
	if out[1].text != wantBoard {
		t.Fatalf("records=\n%s\nwant\n%s", out[1].text, wantBoard)
	}
}

func TestRouterResetKeepsZeroRecord(t *testing.T) {
	r, store, box, _ := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, msg("room", "u1", "!rps start"))
	r.Handle(ctx, msg("room", "u1", "!rps 1"))
	r.Handle(ctx, msg("room", "u1", "!rps reset"))
	out := box.drain()
	if last := out[len(out)-1]; last.text != "Deleted" {
		t.Fatalf("reset reply %q", last.text)
	}
	rec, ok := store.Get("u1")
	if !ok || rec.Total() != 0 {
		t.Fatalf("reset record=%+v ok=%v", rec, ok)
	}
}

func TestRouterOutOfRangeNumberIsInvalidChoice(t *testing.T) {
	r, _, box, saves := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, msg("room", "u1", "!rps start"))
	box.drain()
	writes := saves.count()

	for _, text := range []string{"!rps 4", "!rps 0", "!rps -1"} {
		r.Handle(ctx, msg("room", "u1", text))
		out := box.drain()
		if len(out) != 1 || out[0].text != "Pick 1 (Rock), 2 (Scissors) or 3 (Paper)." {
			t.Fatalf("%s replies: %+v", text, out)
		}
	}
	if saves.count() != writes {
		t.Fatalf("invalid choice wrote stats: %d -> %d", writes, saves.count())
	}
	if st := r.ctrl.State("u1"); st != session.StateAwaiting {
		t.Fatalf("state=%s, want %s", st, session.StateAwaiting)
	}
}
