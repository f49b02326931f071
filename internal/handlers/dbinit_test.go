package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentrecords/internal/alerts"
	"studentrecords/internal/apperrors"
	"studentrecords/internal/config"
	"studentrecords/internal/db/dbtest"
	"studentrecords/internal/runlog"
)

const (
	adminSecret = `{"host":"db","port":5432,"dbname":"app","username":"admin","password":"adm1n-pw"}`
	appSecret   = `{"DB_USER":"app_user","DB_PASSWORD":"app-pw-9"}`
)

type dbInitFixture struct {
	srv     *dbtest.Server
	secrets fakeSecrets
	cfg     config.Config
	ddb     *fakeDynamo
	sns     *fakeSNS
	logs    bytes.Buffer
}

func newDBInitFixture() *dbInitFixture {
	return &dbInitFixture{
		srv:     dbtest.NewServer(),
		secrets: fakeSecrets{"admin-arn": adminSecret, "app-arn": appSecret},
		cfg: config.Config{
			DBSecretID:     "admin-arn",
			AppSecretID:    "app-arn",
			SSLMode:        "disable",
			ConnectTimeout: 5 * time.Second,
			FunctionName:   "db-init",
		},
		ddb: &fakeDynamo{},
		sns: &fakeSNS{},
	}
}

func (f *dbInitFixture) handler() *DBInitHandler {
	return NewDBInitHandler(f.cfg, f.secrets, f.srv.Dial,
		runlog.New(f.ddb, "runs"),
		alerts.New(f.sns, "arn:aws:sns:us-east-1:123456789012:ops"),
		testLogger(&f.logs))
}

func TestDBInitFreshStore(t *testing.T) {
	f := newDBInitFixture()
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})

	resp, err := f.handler().Handle(ctx, []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
	assert.JSONEq(t, `{"ok":true,"rows_total":21}`, resp.Body)

	assert.Equal(t, "db", f.srv.LastDial.Host)
	assert.Equal(t, uint16(5432), f.srv.LastDial.Port)
	assert.Equal(t, "app", f.srv.LastDial.Database)
	assert.Equal(t, "admin", f.srv.LastDial.User)
	assert.Equal(t, "disable", f.srv.LastDial.SSLMode)
	assert.Equal(t, 1, f.srv.Closes)

	st := f.srv.Snapshot()
	assert.Equal(t, dbtest.Role{Login: true, Password: "app-pw-9"}, st.Roles["app_user"])
	assert.True(t, st.Grants["app_user"]["CONNECT app"])

	require.Len(t, f.ddb.puts, 1)
	item := f.ddb.puts[0].Item
	assert.Equal(t, "ok", item["Outcome"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "created", item["RoleAction"].(*types.AttributeValueMemberS).Value)
	assert.Empty(t, f.sns.published)

	logs := f.logs.String()
	assert.Contains(t, logs, `"request_id":"req-1"`)
	assert.Contains(t, logs, "bootstrap complete")
	assert.NotContains(t, logs, "adm1n-pw")
	assert.NotContains(t, logs, "app-pw-9")
}

func TestDBInitRepeatedInvocations(t *testing.T) {
	f := newDBInitFixture()
	h := f.handler()

	for i := 0; i < 3; i++ {
		resp, err := h.Handle(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"ok":true,"rows_total":21}`, resp.Body)
	}
	assert.Equal(t, 3, f.srv.Closes)
	assert.Len(t, f.srv.Snapshot().Students, 21)
}

func TestDBInitFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *dbInitFixture)
		status int
		code   string
		dials  int
	}{
		{
			name:   "missing env",
			setup:  func(f *dbInitFixture) { f.cfg.AppSecretID = "" },
			status: http.StatusInternalServerError,
			code:   "configuration_error",
		},
		{
			name:   "admin secret missing",
			setup:  func(f *dbInitFixture) { delete(f.secrets, "admin-arn") },
			status: http.StatusInternalServerError,
			code:   "configuration_error",
		},
		{
			name:   "app secret missing field",
			setup:  func(f *dbInitFixture) { f.secrets["app-arn"] = `{"DB_USER":"app_user"}` },
			status: http.StatusInternalServerError,
			code:   "configuration_error",
		},
		{
			name:   "admin secret malformed",
			setup:  func(f *dbInitFixture) { f.secrets["admin-arn"] = `{"host":` },
			status: http.StatusInternalServerError,
			code:   "configuration_error",
		},
		{
			name:   "unsafe role name",
			setup:  func(f *dbInitFixture) { f.secrets["app-arn"] = `{"DB_USER":"x; DROP","DB_PASSWORD":"p"}` },
			status: http.StatusInternalServerError,
			code:   "configuration_error",
			dials:  1,
		},
		{
			name: "database unreachable",
			setup: func(f *dbInitFixture) {
				f.srv.DialErr = fmt.Errorf("connect: %w", apperrors.ErrConnectivity)
			},
			status: http.StatusServiceUnavailable,
			code:   "database_unavailable",
			dials:  1,
		},
		{
			name:   "statement fails",
			setup:  func(f *dbInitFixture) { f.srv.FailOn = "GRANT USAGE" },
			status: http.StatusInternalServerError,
			code:   "internal_error",
			dials:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDBInitFixture()
			tt.setup(f)

			resp, err := f.handler().Handle(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.JSONEq(t, fmt.Sprintf(`{"ok":false,"error":%q}`, tt.code), resp.Body)

			assert.Equal(t, tt.dials, f.srv.Dials)
			if tt.dials > 0 && f.srv.DialErr == nil {
				assert.Equal(t, 1, f.srv.Closes, "connection released on failure")
			}

			st := f.srv.Snapshot()
			assert.Empty(t, st.Students)
			assert.Empty(t, st.Roles)

			require.Len(t, f.ddb.puts, 1)
			item := f.ddb.puts[0].Item
			assert.Equal(t, "failed", item["Outcome"].(*types.AttributeValueMemberS).Value)
			assert.Equal(t, tt.code, item["ErrorCode"].(*types.AttributeValueMemberS).Value)

			require.Len(t, f.sns.published, 1)
			assert.Contains(t, aws.ToString(f.sns.published[0].Message), "Error class: "+tt.code)

			assert.NotContains(t, f.logs.String(), "adm1n-pw")
		})
	}
}

func TestDBInitConcurrentRoleCreation(t *testing.T) {
	f := newDBInitFixture()
	f.srv.BeforeExec = func(sql string) {
		if strings.HasPrefix(sql, "CREATE ROLE") {
			f.srv.Mutate(func(s *dbtest.State) {
				s.Roles["app_user"] = dbtest.Role{Login: true, Password: "other"}
			})
		}
	}

	resp, err := f.handler().Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["ok"])

	f.srv.BeforeExec = nil
	resp, err = f.handler().Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDBInitWithoutLedgerOrAlerts(t *testing.T) {
	f := newDBInitFixture()
	f.srv.FailOn = "CREATE TABLE"
	h := NewDBInitHandler(f.cfg, f.secrets, f.srv.Dial, runlog.New(nil, ""), alerts.New(nil, ""), testLogger(&f.logs))

	resp, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, f.logs.String(), "bootstrap failed")
}
