package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emrgen/folio/internal/asset"
	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/service"
	"github.com/emrgen/folio/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrPDFUnavailable = errors.New("pdf export is not configured")
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPortfolioNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSessionForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMissingRequiredFields),
		errors.Is(err, service.ErrContentCorrupted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrIndexOutOfRange),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrUnknownArray),
		errors.Is(err, model.ErrTemplateMismatch),
		errors.Is(err, asset.ErrUnknownKind),
		errors.Is(err, render.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUploadsDisabled),
		errors.Is(err, channel.ErrChannelUnavailable),
		errors.Is(err, ErrPDFUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		logrus.Errorf("internal error: %v", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("failed to write response: %v", err)
	}
}
