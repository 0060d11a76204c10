package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/controller"
	"vocab_srs_backend/internal/repository"
	"vocab_srs_backend/internal/service"
	"vocab_srs_backend/pkg/configwatcher"
	"vocab_srs_backend/pkg/database"
	"vocab_srs_backend/pkg/logger"
	"vocab_srs_backend/pkg/monitoring"
	"vocab_srs_backend/pkg/security"
	"vocab_srs_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	cron     *gocron.Scheduler
	jobCtx   context.Context
	jobStop  context.CancelFunc
}

type repositories struct {
	cardStates *repository.CardStateRepository
	logs       *repository.ReviewLogRepository
	params     *repository.LearnerParametersRepository
	jobs       *repository.OptimizationJobRepository
	decks      *repository.DeckRepository
	sessions   repository.SessionStore
}

type services struct {
	review    *service.ReviewService
	queue     *service.QueueService
	session   *service.SessionService
	optimizer *service.OptimizerService
	stats     *service.StatsService
}

type controllers struct {
	review    *controller.ReviewController
	session   *controller.SessionController
	optimizer *controller.OptimizerController
	stats     *controller.StatsController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	var sessions repository.SessionStore
	if rdb != nil {
		sessions = repository.NewRedisSessionStore(rdb)
	} else {
		sessions = repository.NewMemorySessionStore()
	}
	return &repositories{
		cardStates: repository.NewCardStateRepository(db),
		logs:       repository.NewReviewLogRepository(db),
		params:     repository.NewLearnerParametersRepository(db),
		jobs:       repository.NewOptimizationJobRepository(db),
		decks:      repository.NewDeckRepository(db),
		sessions:   sessions,
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	s.review = service.NewReviewService(db, repos.cardStates, repos.logs, repos.params, repos.decks, cfg.Scheduler)
	s.queue = service.NewQueueService(repos.cardStates, repos.decks)
	s.session = service.NewSessionService(
		repos.sessions,
		s.queue,
		s.review,
		time.Duration(cfg.Scheduler.SessionTTLMinutes)*time.Minute,
	)
	s.optimizer = service.NewOptimizerService(db, repos.jobs, repos.params, repos.logs, repos.cardStates, s.review, cfg.Optimizer, logger.Log)
	s.stats = service.NewStatsService(repos.cardStates, repos.logs, repos.params)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		review:    controller.NewReviewController(s.review),
		session:   controller.NewSessionController(s.session, s.queue),
		optimizer: controller.NewOptimizerController(s.optimizer),
		stats:     controller.NewStatsController(s.stats),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(
		cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
	))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the optimizer job poller. Claimed jobs execute
// inside the poller goroutine; cancellation on shutdown stops a running job
// at its next batch boundary.
func (a *App) startBackgroundTasks(s *services) {
	poll := a.Config.Optimizer.PollSeconds
	workers := a.Config.Optimizer.Workers
	if workers <= 0 {
		workers = 1
	}

	a.jobCtx, a.jobStop = context.WithCancel(context.Background())
	a.cron = gocron.NewScheduler(time.UTC)
	a.cron.Every(poll).Seconds().Do(func() {
		if err := s.optimizer.ProcessPendingJobs(a.jobCtx, workers); err != nil {
			logger.Log.Error("job poll failed", zap.Error(err))
		}
	})
	a.cron.StartAsync()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("vocab-srs", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)
	app.startBackgroundTasks(services)

	// Hot-reload scheduling defaults on config edits. Weights are stored
	// per learner and unaffected.
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(raw interface{}) {
		newCfg, ok := raw.(*config.Config)
		if !ok {
			return
		}
		services.review.SetSchedulerConfig(newCfg.Scheduler)
		logger.Log.Info("scheduler config reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.cron != nil {
		a.cron.Stop()
	}
	if a.jobStop != nil {
		a.jobStop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
