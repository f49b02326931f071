package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/warmup"
)

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}, nil
}

func errResp(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, map[string]any{
		"error": msg,
	})
}

// statusFor maps an error class to the HTTP status returned to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConnectivity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestBody returns the raw body, decoding it when API Gateway marked it
// as base64.
func requestBody(req events.APIGatewayV2HTTPRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", fmt.Errorf("decode base64 body: %w", apperrors.ErrInvalidPayload)
	}
	return string(b), nil
}

func warmResp(ctx context.Context, w *warmup.Warmer, ev warmup.Event, log zerolog.Logger) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := w.Handle(ctx, ev)
	if err != nil {
		log.Warn().Err(err).Int("concurrency", ev.Concurrency).Msg("warmup fan-out failed")
	}
	return jsonResp(http.StatusOK, resp)
}
