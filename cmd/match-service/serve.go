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

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/chatauth"
	"github.com/flosslyDevs/ToothMatch/internal/config"
	"github.com/flosslyDevs/ToothMatch/internal/db"
	"github.com/flosslyDevs/ToothMatch/internal/directory"
	"github.com/flosslyDevs/ToothMatch/internal/events"
	"github.com/flosslyDevs/ToothMatch/internal/grpcserver"
	"github.com/flosslyDevs/ToothMatch/internal/httpapi"
	"github.com/flosslyDevs/ToothMatch/internal/interview"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/match"
	"github.com/flosslyDevs/ToothMatch/internal/notify"
	"github.com/flosslyDevs/ToothMatch/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).
		With(map[string]interface{}{"service": cfg.App.Name, "instance": cfg.App.InstanceID})
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Info("connecting to PostgreSQL", nil)
	pool, err := db.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	conn := db.OpenDB(pool)
	defer conn.Close()

	if cfg.Database.AutoMigrate {
		if _, err := db.Migrate(ctx, conn, log); err != nil {
			return err
		}
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis", nil)
	rdb, err := db.NewRedisClient(ctx, cfg.Redis.URL, cfg.App.Name+"/"+cfg.App.InstanceID)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	// ── Push notifications ───────────────────────────────────────────────────
	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.FCM.Enabled() {
		fcm, err := notify.NewFCMSender(ctx, notify.FCMConfig{
			ProjectID:       cfg.FCM.ProjectID,
			CredentialsFile: cfg.FCM.CredentialsFile,
			CredentialsJSON: cfg.FCM.CredentialsJSON,
		})
		if err != nil {
			return fmt.Errorf("fcm: %w", err)
		}
		sender = fcm
	} else {
		log.Warn("FCM not configured, push notifications are logged only", nil)
	}
	dispatcher := notify.NewDispatcher(sender, notify.NewPostgresTokens(conn), log)

	// ── Domain ───────────────────────────────────────────────────────────────
	dir := directory.NewPostgres(conn, log, directory.WithProfileCache(rdb, cfg.Redis.ProfileCacheTTL))
	publisher := events.NewPublisher(rdb, log)

	matches := match.NewService(match.NewPostgresStore(conn), dir, dispatcher, publisher, log,
		match.WithNotifyTimeout(cfg.Notify.Timeout))
	interviews := interview.NewService(interview.NewPostgresStore(conn), dir, publisher, log)
	chat := chatauth.NewService(interviews, matches)

	registry := events.NewRegistry(rdb, cfg.App.InstanceID)
	if err := registry.Init(ctx); err != nil {
		log.Warn("connection registry init failed", map[string]interface{}{"error": err})
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	stream := events.NewStream(rdb, registry, log, cfg.Events.Heartbeat)
	handler := httpapi.New(
		auth.New(cfg.Auth.JWTSecret, cfg.Auth.TrustGatewayHeader),
		log,
		httpapi.Options{Service: cfg.App.Name, Version: version},
		match.NewHandler(matches, log),
		interview.NewHandler(interviews, log),
		chatauth.NewHandler(chat, log),
		stream,
	)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	srv.RegisterOnShutdown(stream.Close)
	go func() {
		log.Info("http listening", map[string]interface{}{"port": cfg.Server.Port, "version": version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", map[string]interface{}{"error": err})
			cancel()
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	var gs *grpc.Server
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		gs = grpcserver.New(grpcserver.NewServer(chat, dispatcher, log,
			grpcserver.WithLiveDelivery(registry, publisher)), log)
		go func() {
			log.Info("grpc listening", map[string]interface{}{"port": cfg.GRPC.Port})
			if err := gs.Serve(lis); err != nil {
				log.Error("grpc server error", map[string]interface{}{"error": err})
				cancel()
			}
		}()
	}

	// ── Scheduler ────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(interviews, dispatcher, scheduler.Config{
			InterviewSweep: cfg.Scheduler.InterviewSweep,
			TokenPrune:     cfg.Scheduler.TokenPrune,
			TokenMaxAge:    cfg.Notify.TokenMaxAge,
		}, log)
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", map[string]interface{}{"error": err})
	}
	if gs != nil {
		gs.GracefulStop()
	}
	if err := registry.Close(shutdownCtx); err != nil {
		log.Warn("connection registry close failed", map[string]interface{}{"error": err})
	}
	cancel()
	log.Info("stopped", nil)
	return nil
}
