package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

const ServiceName = "student-records"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

func Health(_ context.Context, _ events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(http.StatusOK, HealthResponse{OK: true, Service: ServiceName})
}
