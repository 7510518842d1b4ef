package main

import (
	"context"
	"crm-realtime/auth"
	"crm-realtime/contract"
	"crm-realtime/domain"
	grpcserver "crm-realtime/infrastructure/grpc/server"
	"crm-realtime/infrastructure/websocket"
	"crm-realtime/internal"
	"crm-realtime/moderation"
	"crm-realtime/observability"
	"crm-realtime/repositories"
	"crm-realtime/runtime"
	"crm-realtime/runtime/workers"
	"crm-realtime/services"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until a signal arrives and returns the first fatal error.
// Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	if err := internal.LoadEnvFiles(nil, ".env"); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := internal.OpenStore(config.BadgerFilepath, false)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Registry, broker & workers
	metrics := observability.NewCounters()
	registry := runtime.NewRegistry(log)
	healthServer := grpcserver.NewHealthServer(log)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewTelemetryWorker(log, config.MetricInterval, registry, metrics),
		workers.NewHealthWorker(log, config.HealthInterval, db, healthServer.Health()),
	)

	var publisher contract.Publisher = runtime.NewLocalBroker(registry, metrics)
	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr, Password: config.RedisPassword})
		defer func() { _ = client.Close() }()
		publisher = runtime.NewRedisBroker(client, log)
		sup.Add(workers.NewRedisRelayWorker(client, registry, metrics, log))
		log.Info("Groups shared through redis", "address", config.RedisAddr)
	}

	// 5. Moderation
	moderator, err := prepareModeration(config, log, sup)
	if err != nil {
		return err
	}

	// 6. Services
	users := repositories.NewUserRepository(db)
	chats := repositories.NewChatRepository(db, log)
	notifications := repositories.NewNotificationRepository(db, log)
	commentRepository := repositories.NewCommentRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log)
	// Runs before the store is closed, leases are written back.
	defer func() {
		for _, closer := range []interface{ Close() error }{notifications, commentRepository, messageRepository} {
			if err := closer.Close(); err != nil {
				log.Warn("Unable to release id sequence", "error", err)
			}
		}
	}()

	comments := services.NewCommentService(log, commentRepository, users, publisher, moderator)
	notificationService := services.NewNotificationService(log, notifications, users, publisher)
	fanout := services.NewMessageFanout(log, notifications, publisher)
	messages := services.NewMessageService(log, messageRepository, users, chats, fanout, moderator)

	endpoints := []websocket.Endpoint{
		{Path: "/ws/comments/", Group: domain.CommentsGroup, Route: websocket.ByAction(comments.Handlers())},
		{Path: "/ws/notifications/", Group: domain.NotificationsGroup, Route: websocket.Single(notificationService.Handler())},
		{Path: "/ws/messages/", Group: domain.MessagesGroup, Route: websocket.Single(messages.Handler())},
	}

	opts := []websocket.Option{websocket.WithAllowedOrigin(config.AllowedOrigin)}
	if config.JwtSecret != "" {
		opts = append(opts, websocket.WithAuth(auth.NewSigner(config.JwtSecret)))
		log.Info("WebSocket handshakes require a token")
	}
	wsServer := websocket.NewServer(ctx, log, registry, metrics, websocket.Config{
		SendBufferSize: config.ConnectionBufferSize,
		WriteTimeout:   config.WriteTimeout,
		PongWait:       config.PongWait,
		MaxMessageSize: config.MaxMessageSize,
	}, endpoints, opts...)

	go sup.Run(ctx)

	// 7. Servers
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: wsServer.Router()}

	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting WebSocket server", "address", address, "paths", wsServer.Paths(), "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		if err := healthServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", "error", err)
	}
	healthServer.GracefulStop()
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// prepareModeration returns nil when moderation is disabled.
// A configured directory is watched and reloaded on change, otherwise the embedded dictionary is used.
func prepareModeration(config Config, log *slog.Logger, sup contract.ISupervisor) (contract.IModerator, error) {
	if !config.ModerationEnabled {
		return nil, nil
	}
	char, err := internal.CharacterRune(config.ModerationCharReplacement)
	if err != nil {
		return nil, err
	}

	loader, dir := moderation.NewDefaultLoader(), moderation.DefaultDir
	if config.ModerationWordsDir != "" {
		loader, dir = moderation.NewCensoredLoader(os.DirFS(config.ModerationWordsDir)), "."
	}
	mod, err := moderation.Build(loader, dir, char, log)
	if err != nil {
		return nil, fmt.Errorf("moderation failed to start: %w", err)
	}

	holder := moderation.NewHolder(log, mod)
	if config.ModerationWordsDir != "" {
		sup.Add(workers.NewWordListWatcher(config.ModerationWordsDir, char, holder, log))
	}
	return holder, nil
}
