package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admitflow/crm-backend/internal/core/ports"
)

// LeadHandler handles HTTP requests for lead status operations.
type LeadHandler struct {
	service ports.LeadService
}

func NewLeadHandler(service ports.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// UpdateStatus handles PATCH /v1/leads/:id/status.
//
// @Summary      Update a lead's status
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Lead id"
// @Param        body  body      updateStatusRequest  true  "Target status and optional comment"
// @Success      200   {object}  updateStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/leads/{id}/status [patch]
func (h *LeadHandler) UpdateStatus(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.UpdateStatus(c.Request().Context(), ports.UpdateStatusInput{
		Principal: principal,
		LeadID:    c.Param("id"),
		Status:    req.Status,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUpdateStatusResponse(result))
}

// History handles GET /v1/leads/:id/status-logs.
//
// @Summary      List a lead's status change history
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Lead id"
// @Success      200  {object}  statusLogsResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/leads/{id}/status-logs [get]
func (h *LeadHandler) History(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	logs, err := h.service.GetStatusHistory(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, statusLogsResponse{StatusLogs: toStatusLogResponses(logs)})
}

// List handles GET /v1/leads.
//
// @Summary      List leads visible to the caller
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Filter by lead status"
// @Param        search     query     string  false  "Partial match on name, email or phone"
// @Param        date_from  query     string  false  "created_at lower bound (RFC3339)"
// @Param        date_to    query     string  false  "created_at upper bound (RFC3339)"
// @Param        page       query     int     false  "Page (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200  {object}  listLeadsResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	input := ports.ListLeadsInput{
		Principal: principal,
		Status:    c.QueryParam("status"),
		Search:    c.QueryParam("search"),
	}

	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_from must be RFC3339")
		}
		input.DateFrom = t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_to must be RFC3339")
		}
		input.DateTo = t
	}
	input.Page, _ = strconv.Atoi(c.QueryParam("page"))
	input.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.ListLeads(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toListLeadsResponse(result))
}

// Activity handles GET /v1/activity — elevated roles only (RBAC middleware).
//
// @Summary      Recent status changes across all leads
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max entries (default 50, max 200)"
// @Success      200  {object}  activityResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/activity [get]
func (h *LeadHandler) Activity(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	logs, err := h.service.RecentActivity(c.Request().Context(), principal, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toActivityResponse(logs))
}
