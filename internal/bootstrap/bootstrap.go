// Package bootstrap brings the student-records database to a known state:
// table, seed rows, application role and its grants. Every step is
// idempotent, so a failed run can simply be invoked again.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/db"
)

// Querier is the part of pgx.Tx the procedure needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Params struct {
	// Database receives the CONNECT grant.
	Database    string
	AppUser     string
	AppPassword string
	// Seed defaults to SeedStudents.
	Seed []Student
}

type RoleAction string

const (
	RoleCreated RoleAction = "created"
	RoleAltered RoleAction = "altered"
)

type Result struct {
	// RowsTotal counts every row in the table after the run, not just new ones.
	RowsTotal int64
	Inserted  int64
	Role      RoleAction
}

func (p Params) validate() error {
	if err := ValidateIdentifier("role", p.AppUser); err != nil {
		return err
	}
	if p.Database == "" {
		return fmt.Errorf("database name required: %w", apperrors.ErrConfiguration)
	}
	return nil
}

// Run executes the whole procedure in one transaction on b. Nothing from a
// failed run survives.
func Run(ctx context.Context, b db.Beginner, p Params) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if p.Seed == nil {
		p.Seed = SeedStudents
	}

	var res Result
	err := db.WithTx(ctx, b, func(tx pgx.Tx) error {
		var err error
		res, err = apply(ctx, tx, p)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func apply(ctx context.Context, q Querier, p Params) (Result, error) {
	var res Result

	if _, err := q.Exec(ctx, createStudentTable); err != nil {
		return res, fmt.Errorf("create table: %w", err)
	}

	inserted, err := seed(ctx, q, p.Seed)
	if err != nil {
		return res, err
	}
	res.Inserted = inserted

	if res.Role, err = ensureRole(ctx, q, p.AppUser, p.AppPassword); err != nil {
		return res, err
	}

	for _, stmt := range grantStatements(p.Database, p.AppUser) {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return res, fmt.Errorf("grant: %w", err)
		}
	}

	if err := q.QueryRow(ctx, countStudents).Scan(&res.RowsTotal); err != nil {
		return res, fmt.Errorf("count students: %w", err)
	}
	return res, nil
}

func seed(ctx context.Context, q Querier, rows []Student) (int64, error) {
	var inserted int64
	for _, s := range rows {
		tag, err := q.Exec(ctx, insertStudent, s.FirstName, s.LastName, s.BirthDate, s.Address, s.Email, s.Program)
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", s.Email, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// ensureRole creates the role or resets its password. The existence check
// and the write are not atomic across concurrent runs: a racing creator makes
// CREATE ROLE fail with duplicate_object, which is returned as is.
func ensureRole(ctx context.Context, q Querier, user, password string) (RoleAction, error) {
	var exists bool
	if err := q.QueryRow(ctx, roleExists, user).Scan(&exists); err != nil {
		return "", fmt.Errorf("check role: %w", err)
	}

	role := quoteIdent(user)
	// PASSWORD takes no bind parameter; simple protocol renders it as a literal.
	if exists {
		if _, err := q.Exec(ctx, "ALTER ROLE "+role+" WITH LOGIN PASSWORD $1", pgx.QueryExecModeSimpleProtocol, password); err != nil {
			return "", fmt.Errorf("alter role: %w", err)
		}
		return RoleAltered, nil
	}

	if _, err := q.Exec(ctx, "CREATE ROLE "+role+" WITH LOGIN PASSWORD $1", pgx.QueryExecModeSimpleProtocol, password); err != nil {
		if db.IsDuplicateObject(err) {
			return "", fmt.Errorf("create role: created concurrently by another run: %w", err)
		}
		return "", fmt.Errorf("create role: %w", err)
	}
	return RoleCreated, nil
}

func grantStatements(database, user string) []string {
	role := quoteIdent(user)
	return []string{
		"GRANT CONNECT ON DATABASE " + quoteIdent(database) + " TO " + role,
		"GRANT USAGE ON SCHEMA public TO " + role,
		"GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO " + role,
		"ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT SELECT, INSERT, UPDATE, DELETE ON TABLES TO " + role,
	}
}
