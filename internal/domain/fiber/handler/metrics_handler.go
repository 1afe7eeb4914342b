package handler

import (
	"github.com/fadilmartias/scandid/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterMetrics exposes the Prometheus registry of m on /metrics.
func RegisterMetrics(router fiber.Router, m *metrics.Manager) {
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
}
