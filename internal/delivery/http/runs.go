package http

import (
	"net/http"
	"strconv"
	"time"

	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/model"
	"stock-dynamic/pkg/utils"

	"github.com/labstack/echo/v4"
)

const defaultRunsLimit = 20

type RunResponse struct {
	ID         uint       `json:"id"`
	Kind       string     `json:"kind"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func NewRunResponse(run model.AnalysisRun) RunResponse {
	resp := RunResponse{
		ID:        run.ID,
		Kind:      run.Kind,
		Trigger:   run.Trigger,
		Status:    string(run.Status),
		StartedAt: run.StartedAt,
		Error:     run.ErrorMessage.String,
	}
	if run.FinishedAt.Valid {
		resp.FinishedAt = utils.ToPointer(run.FinishedAt.Time)
	}
	return resp
}

func (h *HttpAPIHandler) SetupRuns(base *echo.Group) {
	base.GET("/runs", h.listRuns)
}

func (h *HttpAPIHandler) listRuns(c echo.Context) error {
	param := model.GetAnalysisRunParam{Limit: utils.ToPointer(defaultRunsLimit)}
	if kind := c.QueryParam("kind"); kind != "" {
		if kind != string(dto.RunKindAnalysis) && kind != string(dto.RunKindBacktest) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("kind must be analysis or backtest"))
		}
		param.Kind = &kind
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("limit must be a positive integer"))
		}
		param.Limit = &limit
	}

	runs, err := h.resultStore.ListRuns(c.Request().Context(), param)
	if err != nil {
		return h.errorResponse(c, err)
	}

	data := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		data = append(data, NewRunResponse(run))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", data))
}
