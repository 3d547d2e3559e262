package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/adapter/db"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/blob"
	"restaurant-orders/internal/config"
	"restaurant-orders/internal/database"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/qrcode"
	"restaurant-orders/internal/server"
	"restaurant-orders/internal/services/catalog"
	"restaurant-orders/internal/services/dinner"
	"restaurant-orders/internal/services/notification"
	"restaurant-orders/migrations"
)

const (
	modeAPI                    = "api"
	modeNotificationSubscriber = "notification-subscriber"
	modeIssueToken             = "issue-token"
)

func main() {
	var (
		mode          = flag.String("mode", modeAPI, "Service mode (api, notification-subscriber, issue-token)")
		port          = flag.Int("port", 0, "HTTP port, overrides the config file")
		configPath    = flag.String("config", "config.yaml", "Path to the YAML config file")
		migrationsDir = flag.String("migrations", "", "Directory with SQL migrations (embedded migrations when empty)")
		prefetch      = flag.Int("prefetch", 1, "RabbitMQ prefetch count")

		userID   = flag.Int64("user-id", 0, "issue-token: subject user id")
		email    = flag.String("email", "", "issue-token: user email")
		roles    = flag.String("roles", "", "issue-token: comma separated roles (staff, moderator, admin)")
		tokenTTL = flag.Duration("ttl", 24*time.Hour, "issue-token: token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if *mode == modeIssueToken {
		if err := runIssueToken(cfg, os.Stdout, *userID, *email, *roles, *tokenTTL); err != nil {
			fmt.Fprintf(os.Stderr, "Error issuing token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logger.New(*mode, cfg.Log.Level)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": cfg.Server.Port,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case modeAPI:
		err = runAPI(ctx, cfg, log, migrationSource(*migrationsDir))
	case modeNotificationSubscriber:
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

// runAPI serves the HTTP API until ctx is cancelled
func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger, migrationFiles fs.FS) error {
	pg, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pg.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", "startup", nil)

	if err := pg.RunMigrations(ctx, migrationFiles); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	photos, err := blob.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	checks := map[string]server.HealthCheck{
		"database": pg.Ping,
	}

	var notifier dinner.Notifier = notification.NewNopNotifier(log)
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()

		notifier = messaging.NewPublisher(conn, log)
		checks["rabbitmq"] = func(context.Context) error { return conn.Ping() }
	}

	dishRepo := db.NewDishRepo(pg)
	dinnerRepo := db.NewDinnerRepo(pg)

	dinners := dinner.NewService(dinnerRepo, dishRepo, qrcode.NewRenderer(qrcode.DefaultSize), notifier, log)
	dishes := catalog.NewService(dishRepo, photos, dinners, log)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Options{
		Service:  "restaurant-orders",
		Logger:   log,
		Verifier: verifier,
		Routes: []server.Routes{
			catalog.NewHandler(dishes, log),
			dinner.NewHandler(dinners, log),
		},
		Checks: checks,
	})

	srv := server.New(cfg.Server.Port, router, time.Duration(cfg.Server.ShutdownTimeout)*time.Second, log)
	return srv.Run(ctx)
}

// runNotificationSubscriber prints dinner status events until ctx is cancelled
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.QueueDinnerNotifications, "notification-subscriber", prefetch)
	subscriber := notification.NewSubscriber(consumer, log, os.Stdout)

	return subscriber.Run(ctx)
}

// runIssueToken prints a signed bearer token for the given user
func runIssueToken(cfg *config.Config, out io.Writer, userID int64, email, roles string, ttl time.Duration) error {
	if userID < 1 {
		return fmt.Errorf("--user-id must be a positive integer")
	}

	identity := &auth.Identity{UserID: userID, Email: email}
	for _, role := range strings.Split(roles, ",") {
		switch strings.TrimSpace(role) {
		case "":
		case "staff":
			identity.IsStaff = true
		case "moderator":
			identity.IsModerator = true
		case "admin":
			identity.IsAdmin = true
		default:
			return fmt.Errorf("unknown role: %s", role)
		}
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	token, err := verifier.Issue(identity, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
