package http

import (
	"net/http"

	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	backtestGroup := base.Group("/backtest")
	backtestGroup.POST("", h.runBacktest)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	req := new(dto.BacktestRequest)
	if ok, err := h.bindAndValidate(c, req); !ok {
		return err
	}

	results, err := h.service.BacktestService.Run(c.Request().Context(), service.BacktestRun{
		Request: *req,
		Trigger: "api",
	})
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("backtest complete", dto.NewBacktestResponse(results)))
}
