package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/videogate/videogate/internal/auth"
	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/broker"
	"github.com/videogate/videogate/internal/config"
	"github.com/videogate/videogate/internal/database"
	"github.com/videogate/videogate/internal/gate"
	"github.com/videogate/videogate/internal/host/chrome"
	"github.com/videogate/videogate/internal/kv"
	"github.com/videogate/videogate/internal/localfile"
	"github.com/videogate/videogate/internal/logging"
	"github.com/videogate/videogate/internal/metrics"
	"github.com/videogate/videogate/internal/options"
	"github.com/videogate/videogate/internal/player"
	"github.com/videogate/videogate/internal/remote"
	"github.com/videogate/videogate/internal/server"
	"github.com/videogate/videogate/internal/storage"
	"github.com/videogate/videogate/internal/watcher"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	closeLog, err := logging.Setup(logging.Config{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.StoreURL)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.close()

	repo := blocklist.NewRepository(st.store)
	m := metrics.New()

	var objects remote.ObjectReader
	if cfg.S3.Configured() {
		s, err := storage.New(ctx, storage.Config{
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			Region:       cfg.S3.Region,
			MaxReadBytes: cfg.S3.MaxReadBytes,
		})
		if err != nil {
			log.Fatalf("failed to initialize storage: %v", err)
		}
		objects = s
	}

	fetcher := remote.NewFetcher(objects)
	updater := remote.NewUpdater(repo, fetcher, m)
	opts := options.NewService(repo)

	var host *chrome.Host
	var executor player.Executor
	if cfg.CDPURL != "" {
		host, err = chrome.Attach(ctx, cfg.CDPURL, cfg.WatchURL)
		if err != nil {
			log.Fatalf("attach chrome host: %v", err)
		}
		defer host.Close()
		executor = host
	}

	msgBroker := broker.New(fetcher, executor)

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set, tab tokens and the message endpoint are disabled")
	}
	if cfg.OptionsPasswordHash == "" {
		log.Println("OPTIONS_PASSWORD_HASH not set, the options API is disabled")
	}
	srv := server.New(server.Config{
		Pinger:    st.pinger,
		Options:   opts,
		Refresher: updater,
		Broker:    msgBroker,
		Auth:      auth.NewHandler(cfg.JWTSecret, cfg.OptionsPasswordHash),
		Metrics:   m,
		BaseURL:   cfg.BaseURL,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	remote.StartRefreshWorker(gctx, updater, cfg.RefreshInterval)

	if cfg.BlocklistFile != "" {
		syncer, err := localfile.New(cfg.BlocklistFile, opts)
		if err != nil {
			log.Fatalf("blocklist file: %v", err)
		}
		g.Go(func() error { return syncer.Watch(gctx) })
	}

	if host != nil {
		controller := gate.New(host, repo, msgBroker.CommandChannel(host.TabID()), gate.Config{
			Delay:    cfg.GateDelay,
			Observer: m,
		})
		w := watcher.New(host, controller)
		g.Go(func() error {
			host.Run(gctx)
			return nil
		})
		g.Go(func() error {
			w.Run(gctx, host.Snapshots())
			controller.Close()
			return nil
		})
	}

	g.Go(func() error {
		log.Printf("videogate listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("shutdown complete")
}

type openedStore struct {
	store  kv.Store
	pinger server.Pinger
	close  func()
}

// openStore picks the key-value engine from the scheme of storeURL.
func openStore(ctx context.Context, storeURL string) (*openedStore, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		m := kv.NewMemory()
		return &openedStore{store: m, pinger: m, close: func() {}}, nil

	case "postgres", "postgresql":
		db, err := database.Connect(ctx, storeURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(storeURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &openedStore{store: kv.NewPostgres(db.Pool), pinger: db, close: db.Close}, nil

	case "sqlite":
		path := strings.TrimPrefix(storeURL, "sqlite://")
		s, err := kv.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return &openedStore{store: s, pinger: s, close: func() { _ = s.Close() }}, nil

	case "redis", "rediss":
		r, err := kv.OpenRedis(ctx, storeURL)
		if err != nil {
			return nil, err
		}
		return &openedStore{store: r, pinger: r, close: func() { _ = r.Close() }}, nil
	}
	return nil, fmt.Errorf("%w: %q", kv.ErrUnsupported, u.Scheme)
}

// hashPassword prints the bcrypt hash for OPTIONS_PASSWORD_HASH. The
// password comes from the first argument or the first line of stdin.
func hashPassword(in io.Reader, out io.Writer, args []string) error {
	var password string
	if len(args) > 0 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("usage: videogate hash-password <password>")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
