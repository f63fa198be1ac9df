package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/domain/fiber/handler"
	"github.com/interviewmate/server/internal/events"
	"github.com/interviewmate/server/internal/metrics"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/service"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
	"github.com/interviewmate/server/internal/webhook"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()

	zlog, err := newLogger(appConfig.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return util.ErrorResponse(c, err)
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: appConfig.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env == "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(100, 1*time.Minute))

	db := ConnectDB()
	rdb := ConnectRedis()

	userRepo := repository.NewUserRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	reportRepo := repository.NewReportRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	tokenRepo := repository.NewTokenRepository(rdb)

	gemini, err := service.NewGeminiService(ctx, zlog)
	if err != nil {
		zlog.Fatal("gemini init failed", zap.Error(err))
	}
	vapi := service.NewVapiService()
	cloudinary := service.NewCloudinaryService()
	razorpay := service.NewRazorpayService()
	publisher := events.NewPublisher(rdb, zlog)

	sessionUc := usecase.NewSessionUsecase(interviewRepo, userRepo, reportRepo, gemini, cloudinary, publisher, zlog)
	authUc := usecase.NewAuthUsecase(userRepo, tokenRepo, util.SendEmail, zlog)
	reportUc := usecase.NewReportUsecase(reportRepo)
	paymentUc := usecase.NewPaymentUsecase(paymentRepo, userRepo, razorpay, zlog)
	templateUc := usecase.NewTemplateUsecase(templateRepo, gemini)
	userUc := usecase.NewUserUsecase(userRepo, interviewRepo, reportRepo, paymentRepo, cloudinary, zlog)

	adapter := webhook.NewAdapter(sessionUc, zlog)

	handler.NewAuthHandler(authUc, userRepo).RegisterRoutes(app)
	handler.NewInterviewHandler(sessionUc, vapi, userRepo, zlog).RegisterRoutes(app)
	handler.NewReportHandler(reportUc, userRepo).RegisterRoutes(app)
	handler.NewPaymentHandler(paymentUc, userRepo).RegisterRoutes(app)
	handler.NewUserHandler(userUc, userRepo).RegisterRoutes(app)
	handler.NewAdminHandler(userUc, templateUc, userRepo).RegisterRoutes(app)
	handler.NewWebhookHandler(adapter).RegisterRoutes(app)

	if addr := appConfig.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(addr); err != nil {
				zlog.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	zlog.Info("server running", zap.String("port", appConfig.Port))
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	// The template embedding column needs the pgvector extension.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatalf("could not enable vector extension: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Interview{},
		&model.Report{},
		&model.Payment{},
		&model.InterviewTemplate{},
	)
	if err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}

func ConnectRedis() *redis.Client {
	redisConfig := config.LoadRedisConfig()
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: could not connect to redis at %s: %v", redisConfig.Addr, err)
	}
	return rdb
}
