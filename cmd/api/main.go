package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"

	"github.com/dcurran1637/Certificate-management/internal/config"
	"github.com/dcurran1637/Certificate-management/internal/database"
	"github.com/dcurran1637/Certificate-management/internal/events"
	"github.com/dcurran1637/Certificate-management/internal/feedtoken"
	"github.com/dcurran1637/Certificate-management/internal/handler"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/observability"
	"github.com/dcurran1637/Certificate-management/internal/repository"
	"github.com/dcurran1637/Certificate-management/internal/router"
	"github.com/dcurran1637/Certificate-management/internal/service"
	sessionstore "github.com/dcurran1637/Certificate-management/internal/session"
	"github.com/dcurran1637/Certificate-management/internal/storage"
	cloud "github.com/dcurran1637/Certificate-management/pkg/cloudinary"
)

const activityChannel = "training:activity"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	// Expiry statuses roll over at local midnight of the configured timezone.
	time.Local = cfg.Location

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to access database pool")
	}
	defer sqlDB.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; sessions are kept in memory and stats are not cached")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = events.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; activity events will not be published to nats")
		} else {
			defer natsConn.Drain()
		}
	}
	publisher := events.NewPublisher(redisClient, activityChannel, natsConn, cfg.NATSSubject)

	fileStore, err := newFileStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise attachment storage")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	signer := feedtoken.NewSigner(cfg.FeedSecret, cfg.FeedTTL)

	personRepo := repository.NewPersonRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	recordRepo := repository.NewTrainingRecordRepository(db)
	thirdPartyRepo := repository.NewThirdPartyRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, publisher, logger)
	attachmentService := service.NewAttachmentService(fileStore, cfg.MaxUploadBytes, logger)
	authService := service.NewAuthService(accountRepo, validate, activityService, bcrypt.DefaultCost, logger)
	courseService := service.NewCourseService(courseRepo, recordRepo, validate, activityService, logger)
	recordService := service.NewRecordService(recordRepo, courseRepo, personRepo, thirdPartyRepo, attachmentService, validate, activityService, logger)
	thirdPartyService := service.NewThirdPartyService(thirdPartyRepo, attachmentService, validate, activityService, logger)
	peopleService := service.NewPeopleService(personRepo, accountRepo, recordRepo, thirdPartyRepo, validate, activityService, logger)
	reportService := service.NewReportService(personRepo, courseRepo, recordRepo, thirdPartyRepo, redisClient, cfg.StatsCacheTTL, logger)
	calendarService := service.NewCalendarService(personRepo, recordRepo, thirdPartyRepo, signer, logger)
	seedService := service.NewSeedService(courseRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := authService.EnsureAdmin(bootstrapCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	cancelBootstrap()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap admin account")
	}
	if created {
		logger.Info().Msg("bootstrap admin account created")
	}

	sessionConfig := session.Config{
		Expiration:     cfg.SessionTTL,
		KeyLookup:      "cookie:" + cfg.SessionCookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SessionSecure,
		CookieSameSite: "Lax",
	}
	var limiterStorage fiber.Storage
	if redisClient != nil {
		sessionConfig.Storage = sessionstore.NewRedisStorage(redisClient, "training:session:")
		limiterStorage = sessionstore.NewRedisStorage(redisClient, "training:ratelimit:")
	}
	sessions := middleware.NewSessions(session.New(sessionConfig), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    !cfg.IsProduction(),
	})
	if cfg.StorageDriver == "local" {
		app.Static(cfg.StoragePublicPrefix, cfg.StorageDir)
	}

	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, sessions, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		RecordHandler:     handler.NewRecordHandler(recordService, logger),
		ThirdPartyHandler: handler.NewThirdPartyHandler(thirdPartyService, logger),
		PeopleHandler:     handler.NewPeopleHandler(peopleService, logger),
		CalendarHandler:   handler.NewCalendarHandler(calendarService, cfg.PublicURL, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		ActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		SessionLoader:     sessions.Load(),
		FeedAuth:          middleware.FeedToken(signer),
		AuthLimiter:       middleware.RateLimit("auth", cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow, limiterStorage),
		HealthPing:        sqlDB.PingContext,
		Metrics:           observability.MetricsHandler(),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newFileStore(cfg config.Config, logger zerolog.Logger) (storage.FileStore, error) {
	if cfg.StorageDriver == "cloudinary" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			return nil, err
		}
		return storage.NewCloudinary(uploader), nil
	}
	return storage.NewLocal(afero.NewOsFs(), cfg.StorageDir, cfg.StoragePublicPrefix)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
