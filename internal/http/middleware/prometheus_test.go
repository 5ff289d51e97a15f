package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestPrometheus(t *testing.T) *PrometheusMiddleware {
	t.Helper()
	// Fresh registry per test to avoid duplicate registration
	m, err := NewPrometheusMiddleware(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create middleware: %v", err)
	}
	return m
}

func TestPrometheusMiddleware(t *testing.T) {
	promMiddleware := newTestPrometheus(t)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/requests", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/requests", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusForbidden, "forbidden")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return errors.New("broken")
	})

	cases := []struct {
		method, path, status string
	}{
		{"GET", "/requests", "200"},
		{"POST", "/requests", "201"},
		{"GET", "/forbidden", "403"},
		{"GET", "/broken", "500"},
	}
	for _, tc := range cases {
		app.Test(httptest.NewRequest(tc.method, tc.path, nil))

		count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues(tc.method, tc.path, tc.status))
		if count != 1 {
			t.Errorf("%s %s: expected count 1 with status %s, got %f", tc.method, tc.path, tc.status, count)
		}
	}
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	if err != nil {
		t.Fatalf("failed to create middleware: %v", err)
	}

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/metrics", nil))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if len(mf.GetMetric()) > 0 {
			t.Errorf("expected no samples for %s, got %d", mf.GetName(), len(mf.GetMetric()))
		}
	}
}

func TestPrometheusMiddleware_PathPattern(t *testing.T) {
	promMiddleware := newTestPrometheus(t)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Post("/requests/approve/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("POST", "/requests/approve/123", nil))
	app.Test(httptest.NewRequest("POST", "/requests/approve/456", nil))

	count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("POST", "/requests/approve/:id", "200"))
	if count != 2 {
		t.Errorf("expected count 2 for pattern /requests/approve/:id, got %f", count)
	}

	if n := testutil.CollectAndCount(promMiddleware.requestDuration); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}
