package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "othello-live/internal/api/http"
	"othello-live/internal/api/ws"
	"othello-live/internal/cache"
	"othello-live/internal/config"
	"othello-live/internal/logging"
	"othello-live/internal/protocol"
	"othello-live/internal/room"
	"othello-live/internal/session"
	"othello-live/internal/store/sqlite"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address (overrides OTHELLO_HTTP_ADDR)"},
		&cli.StringFlag{Name: "db", Usage: "sqlite database path (overrides OTHELLO_DB_PATH)"},
		&cli.StringFlag{Name: "redis", Usage: "redis URL for snapshots (overrides OTHELLO_REDIS_URL)"},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.IsSet("addr") {
		cfg.HTTPAddr = cmd.String("addr")
	}
	if cmd.IsSet("db") {
		cfg.DBPath = cmd.String("db")
	}
	if cmd.IsSet("redis") {
		cfg.RedisURL = cmd.String("redis")
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var snapshots cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		snapshots = rc
		log.Info("using redis snapshot cache")
	}

	sessions := session.Chain{session.Lookup{Store: db}}
	if cfg.SessionKey != "" {
		sessions = append(session.Chain{session.NewJWT(cfg.SessionKey)}, sessions...)
	}

	writer := room.NewSnapshotWriter(snapshots, log)
	rooms := room.NewRegistry(cfg.RoomBuffer, writer.Enqueue)
	n, err := room.Recover(ctx, db, snapshots, rooms, log)
	if err != nil {
		return fmt.Errorf("recover rooms: %w", err)
	}
	log.Info("rooms recovered", zap.Int("count", n))

	proc := protocol.NewProcessor(protocol.Deps{
		Sessions:  sessions,
		Games:     db,
		Cache:     snapshots,
		Rooms:     rooms,
		Snapshots: writer,
		Log:       log,
	})
	hub := ws.NewHub(proc, ws.Options{
		IdentifyTimeout: cfg.IdentifyTimeout,
		OutboundBuffer:  cfg.OutboundBuffer,
		FrameRate:       cfg.FrameRate,
		FrameBurst:      cfg.FrameBurst,
	}, log)
	router := httpapi.SetupRouter(httpapi.Deps{
		Processor:         proc,
		Hub:               hub,
		Cache:             snapshots,
		CompanionDepth:    cfg.CompanionDepth,
		CompanionMaxDepth: cfg.CompanionMaxDepth,
		Log:               log,
	})

	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return gctx },
	}
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return writer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
