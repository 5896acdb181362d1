// cmd/web/main.go
//
// dashgate – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Parse flags (--root, --listen, --log-level).
//
//  2. Start the daily rotating logger (tees to console in a TTY).
//
//  3. Dial Vault only when the configuration holds `vault:` references,
//     then load and validate configuration.
//
//  4. Prime the credential resolver so a missing SQL Server login stops the
//     process here rather than on the first data request.
//
//  5. Build the decision pipeline (identity → object filter → rewrite →
//     SQL guard) and the dashboard store.
//
//  6. Serve the API and wait for SIGINT/SIGTERM under one errgroup; on
//     signal, drain in-flight requests for up to ten seconds.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/dashgate/internal/acl"
	"github.com/yanizio/dashgate/internal/api"
	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/config"
	"github.com/yanizio/dashgate/internal/credential"
	"github.com/yanizio/dashgate/internal/dashboard"
	"github.com/yanizio/dashgate/internal/database"
	"github.com/yanizio/dashgate/internal/datasource"
	"github.com/yanizio/dashgate/internal/logger"
	"github.com/yanizio/dashgate/internal/provider"
	"github.com/yanizio/dashgate/internal/requestinfo"
	"github.com/yanizio/dashgate/internal/rewrite"
	"github.com/yanizio/dashgate/internal/server"
	"github.com/yanizio/dashgate/internal/sqlguard"
	"github.com/yanizio/dashgate/internal/vault"
)

const (
	shutdownGrace    = 10 * time.Second
	verdictCacheSize = 4096
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	var (
		rootFlag   = pflag.String("root", "", "project root holding conf/ (default: $DASHGATE_ROOT or discovered)")
		listenFlag = pflag.String("listen", "", "listen address, overrides http.listen_addr")
		levelFlag  = pflag.String("log-level", "info", "debug, info, warn, or error")
	)
	pflag.Parse()

	root := *rootFlag
	if root == "" {
		root = config.RootDir()
	}
	if *listenFlag != "" {
		// Flags ride the env layer so they win over YAML like any override.
		_ = os.Setenv(config.EnvPrefix+"HTTP__LISTEN_ADDR", *listenFlag)
	}

	logOut, err := logger.New(logger.Options{
		Root:  root,
		Tee:   runningInTTY(),
		Level: logger.ParseLevel(*levelFlag),
	})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := finish(logOut, run(ctx, root, logOut))
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// finish logs the outcome of run and flushes the sinks before main exits;
// os.Exit skips deferred calls.
func finish(logOut *zap.SugaredLogger, err error) int {
	defer func() { _ = logOut.Sync() }()
	if err != nil {
		logOut.Errorw("dashgate stopped", "err", err)
		return 1
	}
	logOut.Info("dashgate stopped cleanly")
	return 0
}

func run(ctx context.Context, root string, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Secrets and configuration ───────────────────────────────────
	//
	var secrets config.SecretResolver
	if config.NeedsSecrets(root) {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			return err
		}
		secrets = vc
	}

	cfg, err := config.LoadFrom(ctx, root, secrets)
	if err != nil {
		return err
	}

	//
	// ── 2.  Fail fast on a missing SQL Server login ─────────────────────
	//
	creds := credential.NewResolver(cfg.CredentialSettings())
	if _, err := creds.Resolve(datasource.KindSQLServer); err != nil {
		return err
	}

	if diff := cfg.PromotionMismatch(); len(diff) > 0 {
		logOut.Warnw("identity.promoted_user_ids and authorization.admin_user_ids disagree; "+
			"ids only in admin_user_ids pass the admin table filter but the rewriter "+
			"treats them as users and refuses admin-only tables under deny-unknown",
			"ids", diff, "unscoped_admins", cfg.UnscopedAdminIDs())
	}

	//
	// ── 3.  Dashboard store ─────────────────────────────────────────────
	//
	store, closeStore, err := openStore(ctx, cfg.Dashboards)
	if err != nil {
		return err
	}
	defer closeStore()

	//
	// ── 4.  Decision pipeline ───────────────────────────────────────────
	//
	policy := acl.New(cfg.PolicySets())
	gw, err := provider.New(provider.Deps{
		Users:       auth.NewResolver(cfg.IdentityOptions()),
		Credentials: creds,
		Policy:      policy,
		Connector:   datasource.NewConnector(cfg.Connection()),
		Rewriter:    rewrite.New(policy, sqlguard.New(sqlguard.WithVerdictCache(verdictCacheSize)), cfg.RewriteOptions()),
		Dashboards:  dashboard.Instrumented(store),
	})
	if err != nil {
		return err
	}

	enricher, err := requestinfo.NewEnricher(cfg.RequestInfo.GeoDB)
	if err != nil {
		return err
	}
	defer enricher.Close()

	srv := server.New(cfg.HTTP, api.New(api.Options{
		Backend:    gw,
		Enricher:   enricher,
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
	}).Routes())

	//
	// ── 5.  Serve until signalled ───────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logOut.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// openStore returns the configured backend and its cleanup func.
func openStore(ctx context.Context, c config.Dashboards) (dashboard.Store, func(), error) {
	switch c.Backend {
	case "sql":
		db, err := database.Open(ctx, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		s := dashboard.NewSQLStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		zap.S().Infow("dashboard store online", "backend", "sql")
		return s, func() { _ = db.Close() }, nil
	default:
		s, err := dashboard.NewFileStore(c.Dir)
		if err != nil {
			return nil, nil, err
		}
		zap.S().Infow("dashboard store online", "backend", "file", "dir", c.Dir)
		return s, func() {}, nil
	}
}
