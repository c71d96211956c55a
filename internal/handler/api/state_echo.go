package api

import (
	"errors"

	models "MarinePulse/internal/domain/models"
	domrepo "MarinePulse/internal/domain/repository"
	xhttp "MarinePulse/pkg/http"
	xlogger "MarinePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StateEchoHandler exposes the canonical vessel and port state over HTTP.
// All endpoints are read-only; writes happen exclusively through poll cycles.
type StateEchoHandler struct {
	logger *xlogger.Logger
	store  domrepo.StateStore
}

func NewStateEchoHandler(logger *xlogger.Logger, store domrepo.StateStore) *StateEchoHandler {
	return &StateEchoHandler{logger: logger, store: store}
}

func (h *StateEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/vessels", h.Vessels)
	g.GET("/vessels/:mmsi", h.Vessel)
	g.GET("/ports", h.Ports)
	g.GET("/ports/:id", h.Port)
	g.GET("/weather", h.Weather)
	e.GET("/healthz", h.Health)
}

func (h *StateEchoHandler) Vessels(c echo.Context) error {
	req := &models.VesselsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows := h.store.Vessels()
	if req.Provider != "" {
		filtered := rows[:0]
		for _, v := range rows {
			if v.Position.Provider == req.Provider {
				filtered = append(filtered, v)
			}
		}
		rows = filtered
	}
	total := int64(len(rows))
	if len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	return xhttp.ListResponse(c, rows, total)
}

func (h *StateEchoHandler) Vessel(c echo.Context) error {
	req := &models.VesselRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	v, err := h.store.Vessel(req.MMSI)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.NotFoundResponse(c, map[string]string{"mmsi": req.MMSI})
		}
		h.logger.Error("vessel lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *StateEchoHandler) Ports(c echo.Context) error {
	req := &models.PortsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows := h.store.Ports()
	total := int64(len(rows))
	if len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	return xhttp.ListResponse(c, rows, total)
}

func (h *StateEchoHandler) Port(c echo.Context) error {
	req := &models.PortRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.store.Port(req.PortID)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.NotFoundResponse(c, map[string]string{"id": req.PortID})
		}
		h.logger.Error("port lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *StateEchoHandler) Weather(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.store.Weather())
}

func (h *StateEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.HealthResponse{
		Status:  "ok",
		Vessels: len(h.store.Vessels()),
		Ports:   len(h.store.Ports()),
	})
}
