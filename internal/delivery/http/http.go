package http

import (
	"errors"
	"net/http"

	"stock-dynamic/internal/analyzer"
	"stock-dynamic/internal/dto"
	"stock-dynamic/internal/repository"
	"stock-dynamic/internal/service"
	"stock-dynamic/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpAPIHandler struct {
	echo        *echo.Echo
	validator   *goValidator.Validate
	service     *service.Service
	resultStore repository.ResultStore
	log         *logger.Logger
}

func NewHttpAPIHandler(
	e *echo.Echo,
	validator *goValidator.Validate,
	service *service.Service,
	resultStore repository.ResultStore,
	log *logger.Logger,
) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:        e,
		validator:   validator,
		service:     service,
		resultStore: resultStore,
		log:         log,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	base := h.echo.Group("/api")
	base.GET("/health", h.health)
	h.SetupAnalysis(base)
	h.SetupBacktest(base)
	h.SetupRuns(base)
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}

// bindAndValidate writes the 400 response itself; a non-nil error means the
// handler must return it as is.
func (h *HttpAPIHandler) bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	return true, nil
}

func (h *HttpAPIHandler) errorResponse(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidWindow), errors.Is(err, analyzer.ErrInvalidInterval):
		code = http.StatusBadRequest
	case analyzer.IsSkip(err):
		code = http.StatusUnprocessableEntity
	default:
		h.log.ErrorContext(c.Request().Context(), "Request failed",
			logger.StringField("path", c.Path()),
			logger.ErrorField(err),
		)
	}
	return c.JSON(code, dto.NewBaseResponse(code, err.Error(), nil))
}
