package audit

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/surgaudit/surgaudit/internal/platform/auth"
	"github.com/surgaudit/surgaudit/internal/platform/export"
	"github.com/surgaudit/surgaudit/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, auditor, viewer
	readGroup := api.Group("", auth.RequireRole("admin", "auditor", "viewer"))
	readGroup.GET("/batches", h.ListBatches)
	readGroup.GET("/batches/:id", h.GetBatch)
	readGroup.GET("/batches/:id/documents", h.GetDocuments)
	readGroup.GET("/batches/:id/reports", h.GetReports)
	readGroup.GET("/batches/:id/export", h.ExportBatch)

	// Write endpoints – admin, auditor
	writeGroup := api.Group("", auth.RequireRole("admin", "auditor"))
	writeGroup.POST("/batches", h.RunBatch)
	writeGroup.DELETE("/batches/:id", h.DeleteBatch)
}

type runBatchRequest struct {
	Name      string          `json:"name"`
	Documents []DocumentInput `json:"documents"`
}

func (h *Handler) RunBatch(c echo.Context) error {
	var req runBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	batch, result, err := h.svc.RunBatch(c.Request().Context(), req.Name, req.Documents)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"batch":  batch,
		"result": result,
	})
}

func (h *Handler) ListBatches(c echo.Context) error {
	p := pagination.FromContext(c)
	batches, total, err := h.svc.ListBatches(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(batches, total, p.Limit, p.Offset))
}

func (h *Handler) GetBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	batch, err := h.svc.GetBatch(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "batch not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batch)
}

func (h *Handler) GetDocuments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	docs, err := h.svc.GetDocuments(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handler) GetReports(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.GetResult(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "batch not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ExportBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	format := c.QueryParam("format")
	if format == "" {
		format = "xlsx"
	}
	result, err := h.svc.GetResult(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "batch not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	switch format {
	case "xlsx":
		c.Response().Header().Set(echo.HeaderContentType, export.ContentTypeXLSX)
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="discrepancias-%s.xlsx"`, id))
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteXLSX(c.Response(), result)
	case "csv":
		c.Response().Header().Set(echo.HeaderContentType, export.ContentTypeCSV)
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="discrepancias-%s.csv"`, id))
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteCSV(c.Response(), result)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "unsupported format: "+format)
}

func (h *Handler) DeleteBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBatch(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
