package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "204"))
	for _, id := range []string{"1", "2"} {
		if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+id, nil)); err != nil {
			t.Fatalf("app.Test: %v", err)
		}
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "204"))
	if after-before != 2 {
		t.Fatalf("expected 2 counted requests, got %v", after-before)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "datatopup_http_requests_total") {
		t.Fatalf("scrape missing request counter")
	}
}

func TestRecordPurchaseAndTopUp(t *testing.T) {
	before := testutil.ToFloat64(purchases.WithLabelValues("MTN", "success"))
	RecordPurchase("mtn", "success")
	if got := testutil.ToFloat64(purchases.WithLabelValues("MTN", "success")); got-before != 1 {
		t.Fatalf("expected purchase counter to advance by 1, got %v", got-before)
	}

	before = testutil.ToFloat64(topUps.WithLabelValues("failed"))
	RecordTopUp("failed")
	if got := testutil.ToFloat64(topUps.WithLabelValues("failed")); got-before != 1 {
		t.Fatalf("expected topup counter to advance by 1, got %v", got-before)
	}
}

func TestMiddlewareCountsPlainErrorsAsServerErrors(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/fails", func(c *fiber.Ctx) error { return errors.New("boom") })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/fails", "500"))
	if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/fails", nil)); err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/fails", "500")); got-before != 1 {
		t.Fatalf("expected one 500 counted, got %v", got-before)
	}
}
