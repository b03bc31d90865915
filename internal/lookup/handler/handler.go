// Package handler exposes the lookup service over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"locator/internal/lookup/atu"
	"locator/internal/lookup/models"
	"locator/internal/lookup/service"
	"locator/pkg/requestcontext"
)

// Service defines the lookup operation the handler fronts.
type Service interface {
	Lookup(ctx context.Context, req service.LookupRequest) (*models.Response, error)
}

// CacheAdmin clears the capability cache and reports how many entries were
// evicted.
type CacheAdmin interface {
	Clear(ctx context.Context) int
}

// Handler wires lookup endpoints to the lookup service.
type Handler struct {
	service Service
	cache   CacheAdmin
	logger  *slog.Logger
}

// New constructs a lookup handler with its dependencies.
func New(service Service, cache CacheAdmin, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		cache:   cache,
		logger:  logger,
	}
}

// Register mounts lookup endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/provision/{objectTypeIDs}", h.HandleLookup)
	r.Get("/api/provision/{objectTypeIDs}/{atuCode}", h.HandleLookup)
	r.Delete("/admin/cache", h.HandleCacheClear)
}

// HandleLookup handles both lookup routes; the territorial code segment is
// optional.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	ids := strings.Split(chi.URLParam(r, "objectTypeIDs"), ",")
	atuCode := strings.TrimSpace(chi.URLParam(r, "atuCode"))

	if atuCode != "" && !atu.IsPlausibleCode(atuCode) {
		h.logger.InfoContext(ctx, "rejecting implausible territorial code",
			"request_id", requestID,
			"atu_code", atuCode,
		)
		writeErrors(w, r, http.StatusBadRequest, models.Error{
			Code: "bad-request",
			Text: fmt.Sprintf("The provided ATU code '%s' is neither a NUTS nor a LAU code", atuCode),
		})
		return
	}

	resp, err := h.service.Lookup(ctx, service.LookupRequest{ObjectTypeIDs: ids, ATUCode: atuCode})
	if errors.Is(err, service.ErrNoObjectTypes) {
		writeErrors(w, r, http.StatusBadRequest, models.Error{
			Code: "bad-request",
			Text: "At least one canonical object type ID must be provided",
		})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "lookup failed",
			"request_id", requestID,
			"error", err,
		)
		writeErrors(w, r, http.StatusInternalServerError, models.Error{
			Code: "internal-error",
			Text: "The lookup could not be completed",
		})
		return
	}

	h.logger.InfoContext(ctx, "lookup request served",
		"request_id", requestID,
		"items", len(resp.Items),
		"errors", len(resp.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeResponse(w, r, http.StatusOK, resp)
}

// HandleCacheClear handles DELETE /admin/cache requests.
func (h *Handler) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	evicted := h.cache.Clear(ctx)
	h.logger.InfoContext(ctx, "capability cache cleared",
		"request_id", requestcontext.RequestID(ctx),
		"evicted", evicted,
	)
	writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}
