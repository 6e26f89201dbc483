package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  apt.Logger
	config  *apt.Config
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger,
		config:  config,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.GetDashboard)
		r.Get("/groups", h.GetGroups)
		r.Get("/stats", h.GetStats)
	})
	r.Route("/items", func(r chi.Router) {
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/start", h.StartItem)
		r.Patch("/{id}/ready", h.ReadyItem)
		r.Patch("/{id}/serve", h.ServeItem)
		r.Patch("/{id}/cancel", h.CancelItem)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetDashboard")
	defer finish()
	log := h.log(r)

	d, err := h.service.GetDashboard(r.Context())
	if err != nil {
		log.Errorf("cannot build dashboard: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not build dashboard")
		return
	}

	apt.Respond(w, http.StatusOK, d, nil)
}

func (h *Handler) GetGroups(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetGroups")
	defer finish()
	log := h.log(r)

	groups, err := h.service.GetGroupedView(r.Context())
	if err != nil {
		log.Errorf("cannot group items: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list table groups")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
	}, nil)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStats")
	defer finish()
	log := h.log(r)

	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		log.Errorf("cannot aggregate stats: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not compute stats")
		return
	}

	apt.Respond(w, http.StatusOK, stats, nil)
}

type statusPayload struct {
	Status  string `json:"status"`
	Notes   string `json:"notes"`
	Version int64  `json:"version"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateStatus")
	defer finish()

	payload, ok := h.decodeStatusPayload(w, r)
	if !ok {
		return
	}

	target := itemstatus.ByName(payload.Status)
	if target == nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	h.transition(w, r, *target, payload)
}

func (h *Handler) StartItem(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Start", itemstatus.Statuses.Preparing)
}

func (h *Handler) ReadyItem(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Ready", itemstatus.Statuses.Ready)
}

func (h *Handler) ServeItem(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Serve", itemstatus.Statuses.Served)
}

func (h *Handler) CancelItem(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Cancel", itemstatus.Statuses.Canceled)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, name string, target itemstatus.Status) {
	w, r, finish := h.tlm.Start(w, r, fmt.Sprintf("Handler.%sItem", name))
	defer finish()

	payload, ok := h.decodeStatusPayload(w, r)
	if !ok {
		return
	}

	h.transition(w, r, target, payload)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, target itemstatus.Status, payload statusPayload) {
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	version := payload.Version
	if version == AnyVersion {
		version, err = parseIfMatch(r.Header.Get("If-Match"))
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid If-Match header")
			return
		}
	}

	item, err := h.service.UpdateStatus(r.Context(), UpdateRequest{
		ItemID:          id,
		Target:          target,
		Notes:           payload.Notes,
		ExpectedVersion: version,
	})
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			log.Errorf("cannot update item %s: %v", id, err)
		} else {
			log.Debug("item update rejected", "item_id", id.String(), "error", err)
		}
		apt.RespondError(w, status, msg)
		return
	}

	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(item.Version, 10)))
	apt.Respond(w, http.StatusOK, item, nil)
}

func (h *Handler) decodeStatusPayload(w http.ResponseWriter, r *http.Request) (statusPayload, bool) {
	var payload statusPayload

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return payload, false
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
			return payload, false
		}
	}

	return payload, true
}

func parseIfMatch(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return AnyVersion, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	return strconv.ParseInt(v, 10, 64)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Item not found"
	case errors.Is(err, ErrIllegalTransition):
		return http.StatusUnprocessableEntity, "Status transition not allowed"
	case errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict, "Item was updated by another terminal, reload and retry"
	default:
		return http.StatusInternalServerError, "Could not update item"
	}
}
