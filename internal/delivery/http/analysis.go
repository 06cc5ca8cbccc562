package http

import (
	"net/http"

	"stock-dynamic/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAnalysis(base *echo.Group) {
	base.POST("/analysis", h.runAnalysis)
}

func (h *HttpAPIHandler) runAnalysis(c echo.Context) error {
	req := new(dto.AnalysisRequest)
	if ok, err := h.bindAndValidate(c, req); !ok {
		return err
	}

	result, err := h.service.AnalysisService.AnalyzeOne(c.Request().Context(), *req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	anchor := dto.ParseTimeAnchor(string(req.TimeAnchor))
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("analysis complete", dto.NewAnalysisResponse(*result, anchor)))
}
