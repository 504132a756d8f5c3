package main

import (
	"context"
	"fmt"
	"os"

	"material_lending/app"
	"material_lending/config"
	"material_lending/db"
	"material_lending/lending"
	"material_lending/models"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "lendctl",
	Short: "lendctl - material lending admin tool",
	Long: `lendctl works directly against the lending database and Redis.

Use it to seed the catalog, register users, issue sessions for testing,
print the overdue report and dashboard, and run the notification worker.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")
}

// deps 是子命令共用的依赖；rdb 只在需要 Redis 时连接
type deps struct {
	cfg  *config.Config
	log  *zap.Logger
	repo *db.Repo
	svc  *lending.Service
	rdb  *redis.Client
}

func open(withRedis bool) (*deps, error) {
	config.LoadEnv(envFile)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := app.NewLogger(cfg.Mode)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DatabaseDSN
	if dsn == "" {
		dsn = db.DSNFromEnv()
	}
	conn, err := db.ConnectDB(dsn, log)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, log: log, repo: db.NewRepo(conn)}

	var notifier lending.Notifier = lending.NopNotifier{}
	if withRedis {
		if d.rdb, err = app.NewRedis(cfg); err != nil {
			d.close()
			return nil, err
		}
		notifier = app.NewNotifier(cfg, d.rdb, log)
	}
	d.svc = lending.NewService(d.repo, notifier, lending.Policy{
		ReservationPeriod: cfg.Lending.ReservationPeriod(),
		FallbackRecipient: cfg.Lending.FallbackRecipient,
		StrictNotify:      cfg.Lending.StrictNotify,
	}, log.Named("lending"))
	return d, nil
}

func (d *deps) close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if sqlDB, err := d.repo.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = d.log.Sync()
}

// professor 解析 --professor；为空时用 BOOTSTRAP_PROFESSOR_EMAIL
func (d *deps) professor(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		email = d.cfg.BootstrapEmail
	}
	if email == "" {
		return nil, fmt.Errorf("no professor given: pass --professor or set BOOTSTRAP_PROFESSOR_EMAIL")
	}
	u, err := d.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find professor %s: %w", email, err)
	}
	if !u.IsProfessor() {
		return nil, fmt.Errorf("%s is not a professor", email)
	}
	return u, nil
}
