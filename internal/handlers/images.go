package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/logging"
	"studentrecords/internal/warmup"
)

// ImageLister returns presigned URLs for every stored image.
type ImageLister interface {
	List(ctx context.Context) ([]string, error)
}

type ImagesResponse struct {
	Images []string `json:"images"`
}

type ImagesHandler struct {
	images ImageLister
	warmer *warmup.Warmer
	log    zerolog.Logger
}

func NewImagesHandler(images ImageLister, warmer *warmup.Warmer, log zerolog.Logger) *ImagesHandler {
	return &ImagesHandler{images: images, warmer: warmer, log: log}
}

func (h *ImagesHandler) Handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
	log := logging.ForRequest(ctx, h.log)
	if ev, ok := warmup.Parse(raw); ok {
		return warmResp(ctx, h.warmer, ev, log)
	}

	urls, err := h.images.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list images failed")
		return errResp(http.StatusInternalServerError, apperrors.Code(err))
	}
	if urls == nil {
		urls = []string{}
	}

	log.Info().Int("count", len(urls)).Msg("images listed")
	return jsonResp(http.StatusOK, ImagesResponse{Images: urls})
}
