package datastore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Option configures the database connection.
type Option func(*options)

type options struct {
	maxOpen            int
	maxIdle            int
	maxLifetime        time.Duration
	logQueries         bool
	slowQueryThreshold time.Duration
}

func WithMaxOpen(n int) Option {
	return func(o *options) {
		o.maxOpen = n
	}
}

func WithMaxIdle(n int) Option {
	return func(o *options) {
		o.maxIdle = n
	}
}

func WithMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		o.maxLifetime = d
	}
}

// WithQueryLogging logs every statement at info level.
func WithQueryLogging() Option {
	return func(o *options) {
		o.logQueries = true
	}
}

// WithSlowQueryThreshold logs statements slower than d at warn level, zero disables it.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *options) {
		o.slowQueryThreshold = d
	}
}

const defaultSlowQueryThreshold = 200 * time.Millisecond

// Open connects to PostgreSQL through a traced pgx pool and wraps it with gorm.
// dsn may be a postgres:// URL or a key=value connection string.
func Open(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	o := &options{slowQueryThreshold: defaultSlowQueryThreshold}
	for _, opt := range opts {
		opt(o)
	}

	cleaned, err := cleanPostgresDSN(dsn)
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(cleaned)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pgxPool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	err = otelpgx.RecordStats(pgxPool)
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("unable to record database stats: %w", err)
	}

	conn := stdlib.OpenDBFromPool(pgxPool)
	if o.maxOpen > 0 {
		conn.SetMaxOpenConns(o.maxOpen)
	}
	if o.maxIdle > 0 {
		conn.SetMaxIdleConns(o.maxIdle)
	}
	if o.maxLifetime > 0 {
		conn.SetConnMaxLifetime(o.maxLifetime)
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 conn,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:                 newQueryLogger(ctx, o.logQueries, o.slowQueryThreshold),
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// cleanPostgresDSN keeps key=value strings and converts postgres:// URLs to that form.
func cleanPostgresDSN(pgString string) (string, error) {
	trimmed := strings.TrimSpace(pgString)
	lower := strings.ToLower(trimmed)
	if strings.Contains(trimmed, "=") && !strings.HasPrefix(lower, "postgres://") &&
		!strings.HasPrefix(lower, "postgresql://") {
		return trimmed, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid scheme: %s", u.Scheme)
	}

	var user, password string
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}

	dsn := []string{
		"host=" + u.Hostname(),
		"port=" + port,
		"user=" + user,
		"password=" + password,
		"dbname=" + strings.TrimPrefix(u.Path, "/"),
	}
	for k, vals := range u.Query() {
		for _, v := range vals {
			dsn = append(dsn, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return strings.Join(dsn, " "), nil
}
