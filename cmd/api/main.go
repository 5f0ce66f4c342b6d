package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KDim67/boostflow-backend/internal/config"
	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/internal/handler"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/internal/migration"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"github.com/KDim67/boostflow-backend/internal/repository/mongostore"
	"github.com/KDim67/boostflow-backend/internal/routes"
	"github.com/KDim67/boostflow-backend/internal/service"
	"github.com/KDim67/boostflow-backend/internal/ws"
	"github.com/KDim67/boostflow-backend/pkg/jwt"
	pkglogger "github.com/KDim67/boostflow-backend/pkg/logger"
	pkgredis "github.com/KDim67/boostflow-backend/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stores holds the repositories of the selected backend
type stores struct {
	channels      repository.ChannelRepository
	memberships   repository.MembershipRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	sqlDB         *gorm.DB
	close         func(ctx context.Context)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := config.ConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Database.Driver, err)
	}

	// Redis is optional: without it fan-out stays within this instance
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(context.Background(), pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			pkglogger.Warn("Redis unavailable, running single-instance: %v", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}

	profiles := st.profiles
	if redisClient != nil {
		profiles = repository.NewCachedProfileRepository(st.profiles, redisClient, repository.DefaultProfileCacheConfig())
	}

	broker := realtime.NewBroker(redisClient, cfg.Realtime.RedisChannel)
	broker.Start()

	hub := ws.NewHub(redisClient, "")
	go hub.Run()

	bus := events.NewBus(*pkglogger.WithComponent("events"))
	var kafkaSink *events.KafkaSink
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		kafkaSink = events.NewKafkaSink(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), *pkglogger.WithComponent("kafka"))
		kafkaSink.Attach(bus)
		pkglogger.Info("Kafka sink enabled: brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	opts := []service.Option{
		service.WithEvents(bus),
		service.WithRealtime(broker),
	}

	// Services
	notificationService := service.NewNotificationService(st.notifications, hub)
	dmNotifier := service.NewDMNotifier(notificationService, profiles, cfg.Notifications.ScanLimit, cfg.Notifications.PreviewLength)
	membershipService := service.NewMembershipService(st.channels, st.memberships, notificationService, opts...)
	channelService := service.NewChannelService(st.channels, st.memberships, st.messages, membershipService, opts...)
	messageService := service.NewMessageService(st.messages, st.channels, dmNotifier, notificationService, opts...)

	// Handlers
	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}
	access := handler.NewChannelAccess(channelService, membershipService, profiles)
	handlers := &routes.Handlers{
		Channels:      handler.NewChannelHandler(channelService, membershipService, profiles, access),
		Messages:      handler.NewMessageHandler(messageService, access),
		Notifications: handler.NewNotificationHandler(notificationService),
		WS:            handler.NewWSHandler(hub, broker, channelService, messageService, access, cfg.CORS.AllowOrigins),
	}

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"store":  cfg.Database.Driver,
			"redis":  redisClient != nil,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	routes.Setup(router, handlers, jwtManager, profiles)

	if st.sqlDB != nil {
		go reportPoolStats(broker, st.sqlDB)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pkglogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Error("Server forced to shutdown: %v", err)
	}
	broker.Stop()
	hub.Stop()
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			pkglogger.Warn("Kafka writer close: %v", err)
		}
	}
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck
	}
	st.close(ctx)
	pkglogger.Info("Server exited")
}

// openStores connects the configured backend and returns its repositories
func openStores(cfg *config.Config) (*stores, error) {
	if cfg.Database.Driver == "mongo" {
		return openMongo(cfg)
	}

	db, err := initDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := migration.Run(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pkglogger.Info("Connected to %s", cfg.Database.Driver)

	return &stores{
		channels:      repository.NewChannelRepository(db),
		memberships:   repository.NewMembershipRepository(db),
		messages:      repository.NewMessageRepository(db),
		notifications: repository.NewNotificationRepository(db),
		profiles:      repository.NewProfileRepository(db),
		sqlDB:         db,
		close: func(context.Context) {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close() //nolint:errcheck
			}
		},
	}, nil
}

func openMongo(cfg *config.Config) (*stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	store := mongostore.New(client.Database(cfg.Mongo.Database), time.Now)
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	pkglogger.Info("Connected to MongoDB database %s", cfg.Mongo.Database)

	return &stores{
		channels:      mongostore.NewChannelRepository(store),
		memberships:   mongostore.NewMembershipRepository(store),
		messages:      mongostore.NewMessageRepository(store),
		notifications: mongostore.NewNotificationRepository(store),
		profiles:      mongostore.NewProfileRepository(store),
		close: func(ctx context.Context) {
			client.Disconnect(ctx) //nolint:errcheck
		},
	}, nil
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.Database.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.SQLitePath)
	default:
		mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("parse DSN: %w", err)
		}
		if mysqlCfg.Params == nil {
			mysqlCfg.Params = map[string]string{}
		}
		mysqlCfg.Params["time_zone"] = "'+00:00'"
		mysqlCfg.Loc = time.UTC
		dialector = mysql.Open(mysqlCfg.FormatDSN())
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "sqlite" {
		// one writer avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetimeDuration())

	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// reportPoolStats feeds the SQL pool gauge until the broker shuts down
func reportPoolStats(broker *realtime.Broker, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			middleware.SetDBConnectionsOpen(sqlDB.Stats().OpenConnections)
		case <-broker.Done():
			return
		}
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
