package handler

import (
	"errors"
	"io"
	"net/http"

	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/striketeam/warden/internal/settings"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// maxBodyBytes bounds settings payloads; the form is tiny.
const maxBodyBytes = 1 << 20

// SettingsHandler exposes the settings upsert pipeline over HTTP.
type SettingsHandler struct {
	pipeline *settings.Pipeline
	logger   *zap.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(pipeline *settings.Pipeline, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// SaveSettings validates and persists a guild configuration payload. The
// response distinguishes "fix your input" failures (400, with per-field
// details for schema violations) from "try again later" store failures (500).
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, req bunrouter.Request) error {
	guildID := req.Param("guildId")

	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to read request body"})
	}

	if _, err := h.pipeline.Apply(req.Context(), guildID, body); err != nil {
		var (
			validationErr  *settings.ValidationError
			persistenceErr *settings.PersistenceError
		)

		switch {
		case errors.Is(err, settings.ErrMalformedPayload):
			w.WriteHeader(http.StatusBadRequest)
			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "request body is not valid JSON"})
		case errors.Is(err, settings.ErrMissingGuildID):
			w.WriteHeader(http.StatusBadRequest)
			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "missing guild ID"})
		case errors.As(err, &validationErr):
			w.WriteHeader(http.StatusBadRequest)

			return bunrouter.JSON(w, restTypes.ErrorResponse{
				Error:   "validation error",
				Details: validationErr.Details,
			})
		case errors.As(err, &persistenceErr):
			w.WriteHeader(http.StatusInternalServerError)

			return bunrouter.JSON(w, restTypes.ErrorResponse{
				Error: "failed to save settings, please try again later",
			})
		default:
			h.logger.Error("Unexpected settings failure",
				zap.String("guildID", guildID),
				zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)

			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "internal server error"})
		}
	}

	return bunrouter.JSON(w, restTypes.AckResponse{OK: true})
}
