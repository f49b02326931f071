package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"studentrecords/internal/apperrors"
)

// AdminCredentials is the RDS-managed master secret shape.
type AdminCredentials struct {
	Host     string `json:"host"`
	Port     Port   `json:"port"`
	DBName   string `json:"dbname"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AppCredentials names the application principal to provision.
type AppCredentials struct {
	User     string `json:"DB_USER"`
	Password string `json:"DB_PASSWORD"`
}

// Port accepts both 5432 and "5432".
type Port uint16

func (p *Port) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return fmt.Errorf("invalid port %q", s)
	}
	*p = Port(n)
	return nil
}

func ParseAdmin(raw string) (AdminCredentials, error) {
	var c AdminCredentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return AdminCredentials{}, fmt.Errorf("decode admin secret: %w: %w", apperrors.ErrConfiguration, err)
	}
	missing := missingFields(map[string]bool{
		"host":     strings.TrimSpace(c.Host) == "",
		"port":     c.Port == 0,
		"dbname":   strings.TrimSpace(c.DBName) == "",
		"username": strings.TrimSpace(c.Username) == "",
		"password": c.Password == "",
	})
	if missing != "" {
		return AdminCredentials{}, fmt.Errorf("admin secret missing %s: %w", missing, apperrors.ErrConfiguration)
	}
	return c, nil
}

func ParseApp(raw string) (AppCredentials, error) {
	var c AppCredentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return AppCredentials{}, fmt.Errorf("decode app secret: %w: %w", apperrors.ErrConfiguration, err)
	}
	missing := missingFields(map[string]bool{
		"DB_USER":     strings.TrimSpace(c.User) == "",
		"DB_PASSWORD": c.Password == "",
	})
	if missing != "" {
		return AppCredentials{}, fmt.Errorf("app secret missing %s: %w", missing, apperrors.ErrConfiguration)
	}
	return c, nil
}

// LoadAdmin fetches and decodes the admin secret.
func LoadAdmin(ctx context.Context, p Provider, id string) (AdminCredentials, error) {
	raw, err := p.GetSecret(ctx, id)
	if err != nil {
		return AdminCredentials{}, err
	}
	return ParseAdmin(raw)
}

// LoadApp fetches and decodes the application principal secret.
func LoadApp(ctx context.Context, p Provider, id string) (AppCredentials, error) {
	raw, err := p.GetSecret(ctx, id)
	if err != nil {
		return AppCredentials{}, err
	}
	return ParseApp(raw)
}

func missingFields(checks map[string]bool) string {
	var names []string
	for _, k := range []string{"host", "port", "dbname", "username", "password", "DB_USER", "DB_PASSWORD"} {
		if empty, ok := checks[k]; ok && empty {
			names = append(names, k)
		}
	}
	return strings.Join(names, ", ")
}
