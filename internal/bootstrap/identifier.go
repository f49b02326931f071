package bootstrap

import (
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"

	"studentrecords/internal/apperrors"
)

// Role and database names are spliced into DDL, which takes no bind
// parameters for identifiers. They must come from a secret, never a request.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateIdentifier allow-lists name for use in DDL text.
func ValidateIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%s %q is not a plain identifier: %w", kind, name, apperrors.ErrConfiguration)
	}
	return nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
