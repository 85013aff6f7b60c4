package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
	db   *sqlx.DB
}

// DB returns the sqlx handle used by the repositories.
func (p *Client) DB() *sqlx.DB {
	return p.db
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() error {
	err := p.db.Close()
	p.pool.Close()

	return err
}

// MustNewClient creates a new Postgres client and runs the service's
// migrations. Connection parameters come from the environment, migration
// location from the service config.
func MustNewClient() *Client {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv(viper.GetString("postgres.host_env")),
		viper.GetString("postgres.port"),
		os.Getenv(viper.GetString("postgres.user_env")),
		os.Getenv(viper.GetString("postgres.password_env")),
		os.Getenv(viper.GetString("postgres.db_env")),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		panic(err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		panic(err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		panic(err)
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")

	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}

	if err := goose.Up(db.DB, viper.GetString("postgres.migrations_path")); err != nil &&
		!errors.Is(err, goose.ErrNoNextVersion) {
		panic(err)
	}

	return &Client{
		pool: pool,
		db:   db,
	}
}
