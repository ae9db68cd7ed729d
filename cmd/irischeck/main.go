package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/park285/rps-kakaotalk-bot/internal/irisfast"
	"github.com/park285/rps-kakaotalk-bot/internal/report"
	"github.com/park285/rps-kakaotalk-bot/internal/stats"
)

type CLI struct {
	IrisBaseURL string        `name:"iris-base-url" env:"IRIS_BASE_URL" help:"Iris HTTP base URL."`
	IrisWSURL   string        `name:"iris-ws-url" env:"IRIS_WS_URL" help:"Iris WebSocket URL."`
	XUserID     string        `name:"x-user-id" env:"X_USER_ID" help:"X-User-Id header."`
	XUserEmail  string        `name:"x-user-email" env:"X_USER_EMAIL" help:"X-User-Email header."`
	XSessionID  string        `name:"x-session-id" env:"X_SESSION_ID" help:"X-Session-Id header."`
	Watch       time.Duration `short:"w" default:"0s" help:"Print WebSocket traffic for this long (0 skips)."`

	StatsBackend string `name:"stats-backend" env:"STATS_BACKEND" default:"file" help:"file, redis or postgres."`
	StatsFile    string `name:"stats-file" env:"STATS_FILE" default:"data.json" help:"Stats JSON file."`
	RedisURL     string `name:"redis-url" env:"REDIS_URL" help:"Redis URL for the redis backend."`
	RedisKey     string `name:"stats-redis-key" env:"STATS_REDIS_KEY" default:"rps:stats" help:"Redis key holding the document."`
	DatabaseURL  string `name:"database-url" env:"DATABASE_URL" help:"Postgres DSN for the postgres backend."`
	Top          int    `short:"n" default:"10" help:"Leaderboard rows to print."`
	SkipStats    bool   `name:"skip-stats" help:"Do not open the stats backend."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Description("Checks Iris connectivity and the rock-paper-scissors stats backend."))

	failed := false
	if cli.IrisBaseURL != "" {
		if err := cli.checkConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "/config error: %v\n", err)
			failed = true
		}
	} else {
		fmt.Println("IRIS_BASE_URL not set; skipping /config")
	}
	if !cli.SkipStats {
		if err := cli.checkStats(); err != nil {
			fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			failed = true
		}
	}
	if cli.Watch > 0 {
		if err := cli.watch(); err != nil {
			fmt.Fprintf(os.Stderr, "ws error: %v\n", err)
			failed = true
		}
	}
	if failed {
		kctx.Exit(1)
	}
}

func (c *CLI) headers() map[string]string {
	return map[string]string{"X-User-Id": c.XUserID, "X-User-Email": c.XUserEmail, "X-Session-Id": c.XSessionID}
}

func (c *CLI) checkConfig() error {
	client := irisfast.NewClient(c.IrisBaseURL, irisfast.WithHeaderProvider(c.headers), irisfast.WithTimeout(8*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := client.GetConfig(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("/config ok: port=%d polling=%d rate=%d endpoint=%s\n", cfg.Port, cfg.PollingSpeed, cfg.MessageRate, cfg.WebserverEndpoint)
	return nil
}

func (c *CLI) checkStats() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	backend, err := stats.OpenBackend(ctx, stats.BackendConfig{
		Kind:        c.StatsBackend,
		FilePath:    c.StatsFile,
		RedisURL:    c.RedisURL,
		RedisKey:    c.RedisKey,
		DatabaseURL: c.DatabaseURL,
	})
	if err != nil {
		return err
	}
	defer backend.Close()
	doc, err := backend.Load(ctx)
	if err != nil {
		return err
	}
	entries := make([]stats.Entry, 0, len(doc))
	for user, rec := range doc {
		entries = append(entries, stats.Entry{User: user, Record: rec})
	}
	stats.SortEntries(entries)
	fmt.Printf("stats ok: backend=%s players=%d\n", c.StatsBackend, len(entries))
	if c.Top > 0 && len(entries) > c.Top {
		entries = entries[:c.Top]
	}
	if board := report.Leaderboard(entries); board != "" {
		fmt.Println(board)
	}
	return nil
}

func (c *CLI) watch() error {
	if c.IrisWSURL == "" {
		return fmt.Errorf("IRIS_WS_URL not set")
	}
	ws := irisfast.NewWebSocket(c.IrisWSURL, 0, nil)
	ws.SetHeaderProvider(c.headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		fmt.Printf("ws state: %s\n", state)
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Printf("ws msg room=%s user=%s text=%q\n", msg.Room, msg.UserID(), msg.Msg)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ws.Connect(cctx); err != nil {
		return err
	}
	time.Sleep(c.Watch)

	closeCtx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ccancel()
	return ws.Close(closeCtx)
}
