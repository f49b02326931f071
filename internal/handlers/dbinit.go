package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"studentrecords/internal/alerts"
	"studentrecords/internal/apperrors"
	"studentrecords/internal/bootstrap"
	"studentrecords/internal/config"
	"studentrecords/internal/db"
	"studentrecords/internal/logging"
	"studentrecords/internal/runlog"
	"studentrecords/internal/secrets"
)

// DBInitHandler runs the database bootstrap once per invocation.
type DBInitHandler struct {
	cfg     config.Config
	secrets secrets.Provider
	dial    db.Dialer
	runs    *runlog.Ledger
	alerts  *alerts.Notifier
	log     zerolog.Logger

	now func() time.Time
}

func NewDBInitHandler(cfg config.Config, sp secrets.Provider, dial db.Dialer, runs *runlog.Ledger, notifier *alerts.Notifier, log zerolog.Logger) *DBInitHandler {
	return &DBInitHandler{
		cfg:     cfg,
		secrets: sp,
		dial:    dial,
		runs:    runs,
		alerts:  notifier,
		log:     log,
		now:     time.Now,
	}
}

// target is what is known about the run before it reaches the database.
type target struct {
	database string
	role     string
}

// Handle ignores the event payload; every invocation performs the full
// bootstrap.
func (h *DBInitHandler) Handle(ctx context.Context, _ json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
	log := logging.ForRequest(ctx, h.log)
	start := h.now()

	res, tgt, err := h.run(ctx, log)
	elapsed := h.now().Sub(start)

	entry := runlog.Entry{
		Database: tgt.database,
		Role:     tgt.role,
		Duration: elapsed,
	}

	if err != nil {
		code := apperrors.Code(err)
		log.Error().Err(err).
			Str("error_code", code).
			Str("database", tgt.database).
			Str("role", tgt.role).
			Dur("duration", elapsed).
			Msg("bootstrap failed")

		entry.Outcome = runlog.OutcomeFailed
		entry.ErrorCode = code
		entry.Error = err.Error()
		h.record(ctx, log, entry)

		if aerr := h.alerts.NotifyFailure(ctx, alerts.Failure{
			Function: h.cfg.FunctionName,
			Database: tgt.database,
			Role:     tgt.role,
			Code:     code,
			Err:      err,
		}); aerr != nil {
			log.Warn().Err(aerr).Msg("failure alert not sent")
		}

		return jsonResp(statusFor(err), map[string]any{"ok": false, "error": code})
	}

	log.Info().
		Str("database", tgt.database).
		Str("role", tgt.role).
		Str("role_action", string(res.Role)).
		Int64("inserted", res.Inserted).
		Int64("rows_total", res.RowsTotal).
		Dur("duration", elapsed).
		Msg("bootstrap complete")

	entry.Outcome = runlog.OutcomeOK
	entry.RowsTotal = res.RowsTotal
	entry.Inserted = res.Inserted
	entry.RoleAction = string(res.Role)
	h.record(ctx, log, entry)

	return jsonResp(http.StatusOK, map[string]any{"ok": true, "rows_total": res.RowsTotal})
}

func (h *DBInitHandler) run(ctx context.Context, log zerolog.Logger) (bootstrap.Result, target, error) {
	var tgt target
	if err := h.cfg.RequireDBInit(); err != nil {
		return bootstrap.Result{}, tgt, err
	}

	admin, err := secrets.LoadAdmin(ctx, h.secrets, h.cfg.DBSecretID)
	if err != nil {
		return bootstrap.Result{}, tgt, err
	}
	tgt.database = admin.DBName

	app, err := secrets.LoadApp(ctx, h.secrets, h.cfg.AppSecretID)
	if err != nil {
		return bootstrap.Result{}, tgt, err
	}
	tgt.role = app.User

	conn, err := h.dial(ctx, db.FromAdmin(admin, h.cfg.SSLMode, h.cfg.ConnectTimeout))
	if err != nil {
		return bootstrap.Result{}, tgt, err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn().Err(cerr).Msg("close connection")
		}
	}()

	res, err := bootstrap.Run(ctx, conn, bootstrap.Params{
		Database:    admin.DBName,
		AppUser:     app.User,
		AppPassword: app.Password,
	})
	return res, tgt, err
}

func (h *DBInitHandler) record(ctx context.Context, log zerolog.Logger, e runlog.Entry) {
	id, err := h.runs.Record(ctx, e)
	if err != nil {
		log.Warn().Err(err).Msg("run not recorded")
		return
	}
	if id != "" {
		log.Debug().Str("run_id", id).Msg("run recorded")
	}
}
