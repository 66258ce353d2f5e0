// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"showcase/internal/config"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQueryThreshold is the duration above which a query is logged at warn
// level and counted in showcase_db_slow_queries_total.
const slowQueryThreshold = 200 * time.Millisecond

// queryLogger routes GORM output through the application slog logger so SQL
// lines carry the request, user and trace IDs from the context.
type queryLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger returns a GORM logger at level.
func NewQueryLogger(level logger.LogLevel) logger.Interface {
	return &queryLogger{level: level, slow: slowQueryThreshold}
}

// queryLogLevel keeps development verbose and production quiet.
func queryLogLevel(cfg *config.Config) logger.LogLevel {
	if cfg.Env == "development" {
		return logger.Info
	}
	return logger.Warn
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, logger.Info, msg, data...)
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, logger.Warn, msg, data...)
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, logger.Error, msg, data...)
}

func (l *queryLogger) printf(ctx context.Context, level logger.LogLevel, msg string, data ...any) {
	if l.level < level {
		return
	}
	middleware.Logger.Log(ctx, slogLevel(level), fmt.Sprintf(msg, data...))
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	slow := l.slow > 0 && elapsed > l.slow
	if slow {
		observability.SlowQueries.Inc()
	}

	var level logger.LogLevel
	msg := "query"
	switch {
	// Missing rows are a normal outcome for lookups such as project by ID.
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		level, msg = logger.Error, "query failed"
	case slow:
		level, msg = logger.Warn, "slow query"
	default:
		level = logger.Info
	}
	if l.level < level {
		return
	}

	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if level == logger.Error {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	middleware.Logger.Log(ctx, slogLevel(level), msg, attrs...)
}

func slogLevel(level logger.LogLevel) slog.Level {
	switch level {
	case logger.Error:
		return slog.LevelError
	case logger.Warn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// DSN builds the PostgreSQL connection string for cfg.
func DSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)
}

// Connect opens a database connection using the provided configuration and returns the gorm DB instance.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dbInstance, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:         NewQueryLogger(queryLogLevel(cfg)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	middleware.Logger.Info("Database connected successfully")

	if !cfg.IsProduction() {
		if err := Migrate(dbInstance); err != nil {
			return nil, err
		}
		middleware.Logger.Info("Database migration completed")
	}

	sqlDB, err := dbInstance.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	return dbInstance, nil
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Project{},
		&models.Image{},
		&models.Like{},
		&models.Flag{},
		&models.Visit{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
