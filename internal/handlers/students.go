package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/config"
	"studentrecords/internal/db"
	"studentrecords/internal/logging"
	"studentrecords/internal/secrets"
	"studentrecords/internal/students"
	"studentrecords/internal/warmup"
)

type StudentsWriterHandler struct {
	cfg     config.Config
	secrets secrets.Provider
	dial    db.Dialer
	warmer  *warmup.Warmer
	log     zerolog.Logger
}

func NewStudentsWriterHandler(cfg config.Config, sp secrets.Provider, dial db.Dialer, warmer *warmup.Warmer, log zerolog.Logger) *StudentsWriterHandler {
	return &StudentsWriterHandler{cfg: cfg, secrets: sp, dial: dial, warmer: warmer, log: log}
}

func (h *StudentsWriterHandler) Handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
	log := logging.ForRequest(ctx, h.log)
	if ev, ok := warmup.Parse(raw); ok {
		return warmResp(ctx, h.warmer, ev, log)
	}

	var req events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Warn().Err(err).Msg("unreadable event")
		return errResp(http.StatusBadRequest, "invalid payload")
	}

	body, err := requestBody(req)
	if err != nil {
		log.Warn().Err(err).Msg("rejected payload")
		return errResp(http.StatusBadRequest, "invalid payload")
	}
	entries, err := students.ParsePair(body)
	if err != nil {
		log.Warn().Err(err).Msg("rejected payload")
		return errResp(http.StatusBadRequest, "invalid payload")
	}
	return h.insert(ctx, log, entries)
}

func (h *StudentsWriterHandler) insert(ctx context.Context, log zerolog.Logger, entries [2]students.Entry) (events.APIGatewayV2HTTPResponse, error) {
	err := h.write(ctx, log, entries)
	switch {
	case err == nil:
		log.Info().Msg("students inserted")
		return jsonResp(http.StatusCreated, map[string]any{"ok": true})
	case errors.Is(err, apperrors.ErrConflict):
		log.Info().Err(err).Msg("duplicate email")
		return errResp(http.StatusConflict, "email already exists")
	default:
		code := apperrors.Code(err)
		log.Error().Err(err).Str("error_code", code).Msg("insert failed")
		return errResp(statusFor(err), code)
	}
}

func (h *StudentsWriterHandler) write(ctx context.Context, log zerolog.Logger, entries [2]students.Entry) error {
	if err := h.cfg.RequireStudentsWriter(); err != nil {
		return err
	}
	admin, err := secrets.LoadAdmin(ctx, h.secrets, h.cfg.DBSecretID)
	if err != nil {
		return err
	}

	conn, err := h.dial(ctx, db.FromAdmin(admin, h.cfg.SSLMode, h.cfg.ConnectTimeout))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn().Err(cerr).Msg("close connection")
		}
	}()

	return students.InsertPair(ctx, conn, entries)
}
