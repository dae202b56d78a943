// Command nb is a command line client for the campus news board.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/app"
	"github.com/and161185/newsboard/internal/config"
	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/migrate"
	"github.com/and161185/newsboard/internal/session"
	"github.com/and161185/newsboard/internal/session/postgres"
	"github.com/and161185/newsboard/internal/view"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// ---- setup ----

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// openStore picks the session backend: Postgres when a DSN is configured,
// the per-profile file otherwise. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Store, func(), error) {
	if cfg.SessionDSN == "" {
		return session.NewFileStore(cfg.SessionDir()), func() {}, nil
	}
	if err := migrate.Up(ctx, cfg.SessionDSN, log); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := postgres.Open(ctx, cfg.SessionDSN)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db, cfg.Profile), db.Close, nil
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `nb CLI
Usage:
  nb [-api URL] [-profile NAME] [-session-dsn DSN] [-log-level LVL] [-yes] <cmd> [args]

Session:
  version
  login          -u <username> [-p <password>]      (prompts when -p is omitted)
  logout
  register       -u <username> -email <addr> [-p <password>] [-first F] [-last L]
                 [-programme ID] [-frequency immediate|daily|weekly]
  status

Pages:
  open <path>
  feed | myposts | moderation | admin | profile
  inviter        [-watch]
  notifications  [-watch]

Actions:
  post           -title T -content C -programme ID [-importance low|medium|high|urgent] [-date D]
  approve        -id N
  reject         -id N
  read           -id N
  set-frequency  -f immediate|daily|weekly
  user-add       -u <username> -email <addr> -p <password> [-first F] [-last L] [-programme ID]
  user-edit      -id N [-u U] [-email E] [-first F] [-last L] [-programme ID]
  assign-role    -id N -role student|publisher|moderator|admin
  user-rm        -id N
  news-add       -title T -content C -programme ID [-importance I] [-date D]
  news-edit      -id N -title T -content C -programme ID [-importance I] [-date D]
  news-rm        -id N
  programme-add  -nom N [-desc D]
  programme-edit -id N -nom N [-desc D]
  programme-rm   -id N
`)
	os.Exit(2)
}

// ---- main ----

// main loads configuration, opens the session store and dispatches a subcommand.
func main() {
	cfg := config.Load()

	// global flags, defaults from the environment
	flag.StringVar(&cfg.APIURL, "api", cfg.APIURL, "backend API base URL")
	flag.StringVar(&cfg.Profile, "profile", cfg.Profile, "session profile name")
	flag.StringVar(&cfg.ConfigDir, "config-dir", cfg.ConfigDir, "directory of file sessions")
	flag.StringVar(&cfg.SessionDSN, "session-dsn", cfg.SessionDSN, "PostgreSQL DSN for shared sessions")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flag.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "refresh interval of watch modes")
	yes := flag.Bool("yes", false, "answer yes to delete confirmations")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	if cmd == "version" {
		fmt.Printf("nb %s (%s)\n", version, buildDate)
		return
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fail(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}
	defer closeStore()

	client, err := apiclient.New(cfg.APIURL, apiclient.StoreTokens{Store: store},
		apiclient.WithLogger(logger), apiclient.WithTimeout(cfg.Timeout))
	if err != nil {
		fail(err)
	}

	env := &view.Env{
		API:     client,
		Store:   store,
		Log:     logger,
		Confirm: ttyConfirmer{yes: *yes, in: os.Stdin, out: os.Stderr},
		Poll:    cfg.PollInterval,
	}
	c := &cli{app: app.New(env), env: env, out: os.Stdout, readPassword: terminalPassword}
	if err := c.dispatch(ctx, cmd, flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
		}
		fail(err)
	}
}

// ---- helpers ----

func fail(err error) {
	var ae *errs.APIError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "api error: status=%d msg=%s\n", ae.Status, errs.Message(err))
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
