package server

import (
	"errors"
	"net/http"
	"strconv"

	adactor "github.com/berfenger/sunspec2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/mqtt"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type errorResponse struct {
	Error string `json:"error"`
}

type versionResponse struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Short    string `json:"short"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/device", s.DeviceHandler)
	e.GET("/models", s.ModelsHandler)
	e.GET("/models/:index", s.ModelHandler)
	e.GET("/version", s.VersionHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) DeviceHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetDeviceRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, err)
	}
	response, ok := res.(domain.GetDeviceResponse)
	if !ok {
		return errorJSON(c, http.StatusInternalServerError, errors.New("unexpected response"))
	}
	if response.HasResponseError() {
		return errorJSON(c, http.StatusServiceUnavailable, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, mqtt.NewDevicePayload(*response.Device))
}

func (s *Server) ModelsHandler(c echo.Context) error {
	return s.models(c, domain.GetModelsRequest{}, false)
}

func (s *Server) ModelHandler(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, errors.New("model index must be an integer"))
	}
	return s.models(c, domain.GetModelsRequest{Index: &index}, true)
}

func (s *Server) models(c echo.Context, req domain.GetModelsRequest, single bool) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, req, REQUEST_TIMEOUT).Result()
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, err)
	}
	response, ok := res.(domain.GetModelsResponse)
	if !ok {
		return errorJSON(c, http.StatusInternalServerError, errors.New("unexpected response"))
	}
	if err := response.GetResponseError(); err != nil {
		if errors.Is(err, adactor.ErrModelIndex) {
			return errorJSON(c, http.StatusNotFound, err)
		}
		return errorJSON(c, http.StatusServiceUnavailable, err)
	}
	if single && len(response.Models) == 1 {
		return c.JSON(http.StatusOK, response.Models[0])
	}
	return c.JSON(http.StatusOK, response.Models)
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, versionResponse{
		Version:  versioninfo.Version,
		Revision: versioninfo.Revision,
		Short:    versioninfo.Short(),
	})
}

func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, errorResponse{Error: err.Error()})
}
