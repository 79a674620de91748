package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/datatopup/internal/auth"
	"github.com/congo-pay/datatopup/internal/config"
	"github.com/congo-pay/datatopup/internal/journal"
	"github.com/congo-pay/datatopup/internal/metrics"
	"github.com/congo-pay/datatopup/internal/middleware"
	"github.com/congo-pay/datatopup/internal/notification"
	"github.com/congo-pay/datatopup/internal/payments"
	"github.com/congo-pay/datatopup/internal/paystack"
	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/purchase"
	"github.com/congo-pay/datatopup/internal/session"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional; without them in-memory backends are used.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	b, err := newBackends(d)
	if err != nil {
		return err
	}
	if !d.Cfg.IsDev() && d.Cache == nil {
		d.Logger.Warn("REDIS_URL not set; sessions are process-local", slog.String("env", d.Cfg.AppEnv))
	}

	var secret []byte
	if d.Cfg.SessionSecret != "" {
		secret = []byte(d.Cfg.SessionSecret)
	}
	sessions, err := session.NewManager(b.sessions, session.Options{
		Secret: secret,
		TTL:    d.Cfg.SessionTTL,
		Secure: d.Cfg.CookieSecure,
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	app.Use(metrics.Middleware())
	app.Use(middleware.Session(sessions, d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", metrics.Handler())

	// Services and handlers
	profiles := profile.NewService(b.profiles)
	notifier := notification.NewLoggerNotifier(d.Logger)

	authSvc := auth.NewService(b.identity, profiles, d.Logger)
	authHandler := auth.NewHandler(authSvc, profiles, sessions, d.Logger)

	deliverer := purchase.NewDeliverer(d.Cfg.SimulationMode(), d.Cfg.SimulatedDeliveryDelay, d.Logger)
	purchaseHandler := purchase.NewHandler(purchase.NewService(profiles, deliverer, b.journal, notifier, d.Logger))

	gateway := paystack.New(paystack.Config{BaseURL: d.Cfg.PaystackBaseURL, SecretKey: d.Cfg.PaystackSecretKey})
	paymentHandler := payments.NewHandler(payments.NewService(gateway, profiles, b.journal, notifier, d.Logger), d.Cfg.PaystackPublicKey)

	journalHandler := journal.NewHandler(b.journal)

	// Pages and session
	RegisterAuthRoutes(app, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, authHandler.TooManyAttempts))

	// JSON endpoints
	RegisterPurchaseRoutes(app, purchaseHandler)
	RegisterPaymentRoutes(app, paymentHandler)
	RegisterJournalRoutes(app, journalHandler)

	d.Logger.Info("routes configured",
		slog.String("profiles", b.profilesName),
		slog.String("identity", b.identityName),
		slog.Bool("simulation", d.Cfg.SimulationMode()),
	)
	return nil
}

// ErrorHandler renders handler errors as {"error": message}. Errors that are
// not *fiber.Error are logged and reported as a generic 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
