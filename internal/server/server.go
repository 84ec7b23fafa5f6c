// Package server contains the HTTP and WebSocket handlers of the photo sharing API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "photoshare/docs" // swagger docs
	"photoshare/internal/config"
	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/notifications"
	"photoshare/internal/repository"
	"photoshare/internal/service"
	"photoshare/internal/session"
	"photoshare/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Deps are the already-initialized dependencies of a Server.
type Deps struct {
	Config   *config.Config
	Store    *repository.Store
	Redis    *redis.Client
	Files    storage.PhotoStore
	Sessions *session.Manager
	Notifier *notifications.Notifier
	Hub      *notifications.Hub
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *repository.Store
	redis          *redis.Client
	files          storage.PhotoStore
	sessions       *session.Manager
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	aggregation *service.AggregationService
	mutations   *service.MutationService
	users       *service.UserService
	uploads     *service.UploadService
}

// NewServer creates a Server from deps.
func NewServer(d Deps) (*Server, error) {
	if d.Config == nil || d.Store == nil || d.Files == nil || d.Sessions == nil {
		return nil, errors.New("server: config, store, files and sessions are required")
	}

	s := &Server{
		config:         d.Config,
		store:          d.Store,
		redis:          d.Redis,
		files:          d.Files,
		sessions:       d.Sessions,
		notifier:       d.Notifier,
		hub:            d.Hub,
		promMiddleware: middleware.InitMetrics("photoshare-api"),
	}

	var publisher service.Publisher
	if d.Notifier != nil {
		publisher = d.Notifier
	}

	st := d.Store
	s.aggregation = service.NewAggregationService(st.Users, st.Photos, st.Likes)
	s.mutations = service.NewMutationService(st.Users, st.Photos, st.Likes, d.Files, publisher)
	s.users = service.NewUserService(st.Users, st.Photos, st.Schema)
	s.uploads = service.NewUploadService(st.Photos, d.Files, d.Config)
	return s, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	maxUpload := s.config.MaxUploadBytes()
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxUploadSizeMB << 20
	}

	app := fiber.New(fiber.Config{
		AppName: "photoshare API",
		// multipart overhead on top of the largest accepted photo
		BodyLimit: int(maxUpload) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// images are embedded by the web client from another origin in development
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application. Paths match the
// web client, so there is no /api prefix.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "photoshare Metrics Dashboard",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	// Schema probes used by the web client's top bar
	app.Get("/test/info", s.TestInfo)
	app.Get("/test/counts", s.TestCounts)
	app.Get("/test/:other", s.TestUnknown)

	app.Get("/images/:name", s.ServeImage)

	admin := app.Group("/admin")
	admin.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	admin.Post("/logout", s.Logout)

	app.Post("/user", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)

	// /user/list must precede /user/:id
	app.Get("/user/list", s.gated(s.ListUsers)...)
	app.Get("/user/details/:id", s.gated(s.GetUserDetail)...)
	app.Delete("/user/me", s.gated(s.DeleteMe)...)
	app.Get("/user/:id", s.gated(s.GetUser)...)
	app.Get("/userMentions/:id", s.gated(s.GetUserMentions)...)

	app.Post("/photosOfUser/mentions", s.gated(s.RegisterMentions)...)
	app.Get("/photosOfUser/:id", s.gated(s.GetPhotosOfUser)...)

	app.Post("/commentsOfPhoto/:photoId", s.gated(
		middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.AddComment)...)
	app.Delete("/comments/:id", s.gated(s.DeleteComment)...)

	app.Post("/photos/new", s.gated(
		middleware.RateLimit(s.redis, 20, time.Minute, "upload_photo"), s.UploadPhoto)...)
	app.Post("/photos/:id/like", s.gated(s.ToggleLike)...)
	app.Get("/photos/:id/likes", s.gated(s.GetLikes)...)
	app.Delete("/photos/:id", s.gated(s.DeletePhoto)...)

	app.Get("/ws", s.gated(s.RequireUpgrade, s.WebsocketHandler())...)
}

// gated prefixes handlers with the session gate. The gate is mounted per route
// so paths that match nothing still fall through to 404.
func (s *Server) gated(handlers ...fiber.Handler) []fiber.Handler {
	chain := []fiber.Handler{s.AuthRequired(), middleware.ContextMiddleware()}
	return append(chain, handlers...)
}

// Start starts the server and blocks until it stops listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring",
				slog.String("hub", s.hub.Name()),
				slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", s.hub.Name(), err))
		}
	}

	if s.store.Close != nil {
		if err := s.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
