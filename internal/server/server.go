// Package server exposes the operational HTTP endpoints: health and metrics.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status      string `json:"status"`
	ActivePolls int    `json:"active_polls"`
}

// PollCounter reports how many polls the engine currently tracks.
type PollCounter interface {
	ActiveCount() int
}

type Server struct {
	echo *echo.Echo
}

func New(polls PollCounter, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{
			Status:      "ok",
			ActivePolls: polls.ActiveCount(),
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{echo: e}
}

// Start blocks serving on the given port until Shutdown.
func (s *Server) Start(port string) error {
	return s.echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
