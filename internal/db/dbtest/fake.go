// Package dbtest is an in-memory stand-in for the handful of Postgres
// statements this repo issues. Each Begin works on a copy of the committed
// state; Commit publishes it, Rollback drops it.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studentrecords/internal/db"
)

type Student struct {
	Name  string
	Email string
}

type Role struct {
	Login    bool
	Password string
}

type State struct {
	TableExists bool
	Students    []Student
	Roles       map[string]Role
	// Grants maps role name to granted privileges, e.g. "CONNECT app".
	Grants map[string]map[string]bool
}

func (s State) clone() State {
	out := State{
		TableExists: s.TableExists,
		Students:    append([]Student(nil), s.Students...),
		Roles:       make(map[string]Role, len(s.Roles)),
		Grants:      make(map[string]map[string]bool, len(s.Grants)),
	}
	for k, v := range s.Roles {
		out.Roles[k] = v
	}
	for k, v := range s.Grants {
		g := make(map[string]bool, len(v))
		for p := range v {
			g[p] = true
		}
		out.Grants[k] = g
	}
	return out
}

func (s State) CountEmail(email string) int {
	n := 0
	for _, st := range s.Students {
		if st.Email == email {
			n++
		}
	}
	return n
}

// Server holds committed state shared by every connection it hands out.
type Server struct {
	mu    sync.Mutex
	state State

	// FailOn makes any statement containing the substring fail.
	FailOn string
	// DialErr is returned by Dial when set.
	DialErr error
	// BeforeExec runs before each Exec with the server unlocked.
	BeforeExec func(sql string)

	Execs     []string
	Dials     int
	Closes    int
	Commits   int
	Rollbacks int
	LastDial  db.ConnParams
}

func NewServer() *Server {
	return &Server{state: State{Roles: map[string]Role{}, Grants: map[string]map[string]bool{}}}
}

// Snapshot returns a copy of the committed state.
func (s *Server) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Mutate changes committed state directly, as another session would.
func (s *Server) Mutate(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Dial satisfies db.Dialer.
func (s *Server) Dial(_ context.Context, p db.ConnParams) (db.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dials++
	s.LastDial = p
	if s.DialErr != nil {
		return nil, s.DialErr
	}
	return &Conn{srv: s}, nil
}

type Conn struct {
	srv    *Server
	closed bool
}

func (c *Conn) Begin(context.Context) (pgx.Tx, error) {
	if c.closed {
		return nil, errors.New("conn closed")
	}
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	return &Tx{srv: c.srv, state: c.srv.state.clone()}, nil
}

func (c *Conn) Close(context.Context) error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.srv.Closes++
	}
	return nil
}

// Tx implements the pgx.Tx methods used by this repo; the rest panic.
type Tx struct {
	pgx.Tx
	srv   *Server
	state State
	done  bool
}

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.srv.mu.Lock()
	defer t.srv.mu.Unlock()
	t.srv.state = t.state
	t.srv.Commits++
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.srv.mu.Lock()
	defer t.srv.mu.Unlock()
	t.srv.Rollbacks++
	return nil
}

var roleName = regexp.MustCompile(`ROLE "([^"]+)"`)
var grantee = regexp.MustCompile(`TO "([^"]+)"$`)
var database = regexp.MustCompile(`ON DATABASE "([^"]+)"`)

func pgErr(code, msg string) error {
	return &pgconn.PgError{Severity: "ERROR", Code: code, Message: msg}
}

func (t *Tx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.done {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	if hook := t.srv.BeforeExec; hook != nil {
		hook(sql)
	}

	t.srv.mu.Lock()
	defer t.srv.mu.Unlock()
	t.srv.Execs = append(t.srv.Execs, sql)

	if t.srv.FailOn != "" && strings.Contains(sql, t.srv.FailOn) {
		return pgconn.CommandTag{}, pgErr("42601", "injected failure")
	}

	stmt := strings.TrimSpace(sql)
	switch {
	case strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS public.estudiante"):
		t.state.TableExists = true
		return pgconn.NewCommandTag("CREATE TABLE"), nil

	case strings.HasPrefix(stmt, "INSERT INTO public.estudiante"):
		return t.insert(stmt, args)

	case strings.HasPrefix(stmt, "CREATE ROLE"), strings.HasPrefix(stmt, "ALTER ROLE"):
		return t.role(stmt, args)

	case strings.HasPrefix(stmt, "GRANT"), strings.HasPrefix(stmt, "ALTER DEFAULT PRIVILEGES"):
		return t.grant(stmt)
	}
	return pgconn.CommandTag{}, pgErr("42601", "unsupported statement: "+stmt)
}

func (t *Tx) insert(stmt string, args []any) (pgconn.CommandTag, error) {
	if !t.state.TableExists {
		return pgconn.CommandTag{}, pgErr("42P01", `relation "public.estudiante" does not exist`)
	}
	var name, email string
	switch len(args) {
	case 6:
		name, _ = args[0].(string)
		email, _ = args[4].(string)
	case 2:
		name, _ = args[0].(string)
		email, _ = args[1].(string)
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unexpected insert arity %d", len(args))
	}
	if t.state.CountEmail(email) > 0 {
		if strings.Contains(stmt, "ON CONFLICT (correo_electronico) DO NOTHING") {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		e := pgErr("23505", "duplicate key value violates unique constraint").(*pgconn.PgError)
		e.ConstraintName = "estudiante_correo_electronico_key"
		return pgconn.CommandTag{}, e
	}
	t.state.Students = append(t.state.Students, Student{Name: name, Email: email})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *Tx) role(stmt string, args []any) (pgconn.CommandTag, error) {
	m := roleName.FindStringSubmatch(stmt)
	if m == nil {
		return pgconn.CommandTag{}, pgErr("42601", "role name must be quoted")
	}
	if len(args) != 2 || args[0] != pgx.QueryExecModeSimpleProtocol {
		return pgconn.CommandTag{}, pgErr("42601", `syntax error at or near "$1"`)
	}
	password, _ := args[1].(string)
	name := m[1]

	if strings.HasPrefix(stmt, "CREATE ROLE") {
		_, local := t.state.Roles[name]
		_, committed := t.srv.state.Roles[name]
		if local || committed {
			return pgconn.CommandTag{}, pgErr("42710", fmt.Sprintf(`role "%s" already exists`, name))
		}
		t.state.Roles[name] = Role{Login: true, Password: password}
		return pgconn.NewCommandTag("CREATE ROLE"), nil
	}

	if _, ok := t.state.Roles[name]; !ok {
		return pgconn.CommandTag{}, pgErr("42704", fmt.Sprintf(`role "%s" does not exist`, name))
	}
	t.state.Roles[name] = Role{Login: true, Password: password}
	return pgconn.NewCommandTag("ALTER ROLE"), nil
}

func (t *Tx) grant(stmt string) (pgconn.CommandTag, error) {
	m := grantee.FindStringSubmatch(stmt)
	if m == nil {
		return pgconn.CommandTag{}, pgErr("42601", "grantee must be quoted")
	}
	name := m[1]
	if _, ok := t.state.Roles[name]; !ok {
		return pgconn.CommandTag{}, pgErr("42704", fmt.Sprintf(`role "%s" does not exist`, name))
	}

	var priv string
	switch {
	case strings.Contains(stmt, "CONNECT ON DATABASE"):
		d := database.FindStringSubmatch(stmt)
		if d == nil {
			return pgconn.CommandTag{}, pgErr("42601", "database must be quoted")
		}
		priv = "CONNECT " + d[1]
	case strings.Contains(stmt, "USAGE ON SCHEMA public"):
		priv = "USAGE public"
	case strings.HasPrefix(stmt, "ALTER DEFAULT PRIVILEGES") && strings.Contains(stmt, "SELECT, INSERT, UPDATE, DELETE ON TABLES"):
		priv = "DEFAULT CRUD public"
	case strings.Contains(stmt, "SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public"):
		priv = "CRUD public"
	default:
		return pgconn.CommandTag{}, pgErr("42601", "unsupported grant: "+stmt)
	}

	if t.state.Grants[name] == nil {
		t.state.Grants[name] = map[string]bool{}
	}
	t.state.Grants[name][priv] = true
	if strings.HasPrefix(stmt, "ALTER") {
		return pgconn.NewCommandTag("ALTER DEFAULT PRIVILEGES"), nil
	}
	return pgconn.NewCommandTag("GRANT"), nil
}

func (t *Tx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if t.done {
		return row{err: pgx.ErrTxClosed}
	}
	t.srv.mu.Lock()
	defer t.srv.mu.Unlock()
	t.srv.Execs = append(t.srv.Execs, sql)

	if t.srv.FailOn != "" && strings.Contains(sql, t.srv.FailOn) {
		return row{err: pgErr("42601", "injected failure")}
	}

	stmt := strings.TrimSpace(sql)
	switch {
	case strings.Contains(stmt, "FROM pg_roles WHERE rolname = $1"):
		name, _ := args[0].(string)
		_, ok := t.state.Roles[name]
		return row{values: []any{ok}}
	case strings.HasPrefix(stmt, "SELECT count(*) FROM public.estudiante"):
		if !t.state.TableExists {
			return row{err: pgErr("42P01", `relation "public.estudiante" does not exist`)}
		}
		return row{values: []any{int64(len(t.state.Students))}}
	}
	return row{err: pgErr("42601", "unsupported query: "+stmt)}
}

type row struct {
	values []any
	err    error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *bool:
			*d = v.(bool)
		case *int64:
			*d = v.(int64)
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}
