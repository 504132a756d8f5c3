package app

import (
	"context"
	"fmt"
	"time"

	"material_lending/config"
	"material_lending/db"
	"material_lending/lending"
	"material_lending/notify"
	"material_lending/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	Config  *config.Config
	Log     *zap.Logger
	Repo    *db.Repo
	Lending *lending.Service

	appSess *session.AppSessionStore
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	// --- DB: Postgres ---
	dsn := cfg.DatabaseDSN
	if dsn == "" {
		dsn = db.DSNFromEnv()
	}
	dbConn, err := db.ConnectDB(dsn, log)
	if err != nil {
		return nil, err
	}

	// --- Redis ---
	rdb, err := NewRedis(cfg)
	if err != nil {
		return nil, err
	}

	repo := db.NewRepo(dbConn)
	svc := lending.NewService(repo, NewNotifier(cfg, rdb, log), lending.Policy{
		ReservationPeriod: cfg.Lending.ReservationPeriod(),
		FallbackRecipient: cfg.Lending.FallbackRecipient,
		StrictNotify:      cfg.Lending.StrictNotify,
	}, log.Named("lending"))

	// --- Gin ---
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(RequestLogger(log.Named("http")), gin.Recovery())
	useCORS(r, cfg.WebOrigin, cfg.ExtraOrigins)

	return &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg, Log: log,
		Repo: repo, Lending: svc,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}, nil
}

func NewRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rdb, nil
}

// NewNotifier 按 NOTIFY_BACKEND 选择通知方式，日志总是保留一份
func NewNotifier(cfg *config.Config, rdb *redis.Client, log *zap.Logger) lending.Notifier {
	logN := notify.NewLogNotifier(log.Named("notify"))
	switch cfg.NotifyBackend {
	case "redis":
		return notify.Fanout{logN, notify.NewRedisNotifier(rdb, "", "")}
	case "mail":
		return notify.Fanout{logN, notify.NewMailNotifier(notify.NewMailer(notify.LoadSMTPFromEnv(), log.Named("mail")))}
	default:
		return logN
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}
