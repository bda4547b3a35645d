package server

import (
	"github.com/robertterquin/RIdeTrack/internal/auth"
	"github.com/robertterquin/RIdeTrack/internal/config"
	"github.com/robertterquin/RIdeTrack/internal/goal"
	"github.com/robertterquin/RIdeTrack/internal/ride"
	"github.com/robertterquin/RIdeTrack/internal/route"
	"github.com/robertterquin/RIdeTrack/internal/shared/clock"
	"github.com/robertterquin/RIdeTrack/internal/stream"
	"github.com/robertterquin/RIdeTrack/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Stream    *stream.Hub
	Scheduler *goal.Scheduler
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	sysClock := clock.System()
	hub := stream.NewHub(redisClient)

	rideStore := ride.NewStore(db)
	goalStore := goal.NewStore(db)
	engine := goal.NewEngine(goalStore, rideStore, sysClock)
	sessions := telemetry.NewManager(rideStore, hub, sysClock)

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        db,
		Redis:     redisClient,
		Stream:    hub,
		Scheduler: goal.NewScheduler(engine, goalStore),
	}

	registerRoutes(s, rideStore, goalStore, engine, sessions)
	return s
}

func registerRoutes(s *Server, rides *ride.Store, goals *goal.PgStore, engine *goal.Engine, sessions *telemetry.Manager) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	telemetry.RegisterRoutes(s.App.Group("/telemetry"), sessions, jwtMiddleware)
	ride.RegisterRoutes(s.App.Group("/rides"), rides, jwtMiddleware)
	route.RegisterRoutes(s.App.Group("/routes"), route.NewService(s.DB), jwtMiddleware)
	goal.RegisterRoutes(s.App.Group("/goals"), goals, engine, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
