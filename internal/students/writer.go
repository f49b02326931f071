// Package students writes student rows on behalf of the API.
package students

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/db"
)

const insertNameEmail = `INSERT INTO public.estudiante (nombre, correo_electronico) VALUES ($1, $2)`

// PairRequest is the request body: two names and two emails.
type PairRequest struct {
	N1 *string `json:"n1"`
	E1 *string `json:"e1"`
	N2 *string `json:"n2"`
	E2 *string `json:"e2"`
}

type Entry struct {
	Name  string
	Email string
}

// ParsePair decodes body and requires n1, e1, n2 and e2 to be non-blank strings.
func ParsePair(body string) ([2]Entry, error) {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	var req PairRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return [2]Entry{}, fmt.Errorf("decode body: %w", apperrors.ErrInvalidPayload)
	}

	var missing []string
	for _, f := range []struct {
		name string
		v    *string
	}{{"n1", req.N1}, {"e1", req.E1}, {"n2", req.N2}, {"e2", req.E2}} {
		if f.v == nil || strings.TrimSpace(*f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return [2]Entry{}, fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), apperrors.ErrInvalidPayload)
	}

	return [2]Entry{
		{Name: strings.TrimSpace(*req.N1), Email: strings.TrimSpace(*req.E1)},
		{Name: strings.TrimSpace(*req.N2), Email: strings.TrimSpace(*req.E2)},
	}, nil
}

// InsertPair inserts both entries in one transaction; a duplicate email
// rolls back both and returns apperrors.ErrConflict.
func InsertPair(ctx context.Context, b db.Beginner, entries [2]Entry) error {
	return db.WithTx(ctx, b, func(tx pgx.Tx) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, insertNameEmail, e.Name, e.Email); err != nil {
				if db.IsUniqueViolation(err) {
					return fmt.Errorf("insert %s: %w: %w", e.Email, apperrors.ErrConflict, err)
				}
				return fmt.Errorf("insert %s: %w", e.Email, err)
			}
		}
		return nil
	})
}
