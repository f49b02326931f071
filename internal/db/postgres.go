package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/secrets"
)

const defaultConnectTimeout = 5 * time.Second

// ConnParams describes a single Postgres connection.
type ConnParams struct {
	Host           string
	Port           uint16
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// FromAdmin builds connection params from the RDS master secret.
func FromAdmin(c secrets.AdminCredentials, sslMode string, timeout time.Duration) ConnParams {
	return ConnParams{
		Host:           c.Host,
		Port:           uint16(c.Port),
		Database:       c.DBName,
		User:           c.Username,
		Password:       c.Password,
		SSLMode:        sslMode,
		ConnectTimeout: timeout,
	}
}

// DSN renders a keyword/value connection string with every value quoted.
func (p ConnParams) DSN() string {
	timeout := p.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	secs := int((timeout + time.Second - 1) / time.Second)

	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	pairs := []struct{ k, v string }{
		{"host", p.Host},
		{"port", strconv.Itoa(int(p.Port))},
		{"dbname", p.Database},
		{"user", p.User},
		{"password", p.Password},
		{"sslmode", sslMode},
		{"connect_timeout", strconv.Itoa(secs)},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv.k+"="+quoteValue(kv.v))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Beginner starts a transaction. *pgx.Conn and pgxpool.Pool satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Conn is the subset of *pgx.Conn the handlers use.
type Conn interface {
	Beginner
	Close(ctx context.Context) error
}

// Dialer opens a connection; handlers take one so tests can swap it out.
type Dialer func(ctx context.Context, p ConnParams) (Conn, error)

// Dial opens a single connection bounded by p.ConnectTimeout.
func Dial(ctx context.Context, p ConnParams) (Conn, error) {
	cfg, err := pgx.ParseConfig(p.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w: %w", apperrors.ErrConfiguration, err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d/%s: %w: %w", p.Host, p.Port, p.Database, connectErrorClass(err), err)
	}
	return conn, nil
}

// WithTx runs fn inside a transaction: commit when fn returns nil, rollback
// on error or panic.
func WithTx(ctx context.Context, b Beginner, fn func(tx pgx.Tx) error) error {
	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
