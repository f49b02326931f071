package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"studentrecords/internal/apperrors"
)

const (
	codeUniqueViolation = "23505"
	codeDuplicateObject = "42710"

	classInvalidAuthorization = "28"
	codeInvalidCatalogName    = "3D000"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsDuplicateObject reports whether err is a Postgres duplicate_object, which
// is what CREATE ROLE returns when the role already exists.
func IsDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeDuplicateObject
}

// connectErrorClass sorts a failed connect. A server that rejects the
// credentials or the database name answered, so retrying cannot help.
func connectErrorClass(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, classInvalidAuthorization) || pgErr.Code == codeInvalidCatalogName {
			return apperrors.ErrConfiguration
		}
	}
	return apperrors.ErrConnectivity
}
