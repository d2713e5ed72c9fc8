package router

import (
	"log/slog"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	bootstrap "github.com/tbeaudouin05/admin-checkout/api/bootstrap"
	"github.com/tbeaudouin05/admin-checkout/api/metrics"
	checkoutapp "github.com/tbeaudouin05/admin-checkout/api/services/checkout/app"
	profileapp "github.com/tbeaudouin05/admin-checkout/api/services/profile/app"
)

// NewRouter returns the central HTTP router for the API, wired to the
// bootstrapped services.
func NewRouter() http.Handler {
	// Initialize app dependencies (non-fatal if it fails here; handlers re-check).
	if err := bootstrap.Ensure(); err != nil {
		slog.Error("bootstrap ensure failed", "err", err)
	}
	return NewHandler(bootstrap.GetCheckoutService(), bootstrap.GetProfileService(), bootstrap.GetMetrics())
}

// NewHandler maps the checkout and profile services onto HTTP routes using
// grpc-gateway's ServeMux.
func NewHandler(checkout checkoutapp.Service, profile profileapp.Service, m *metrics.Metrics) http.Handler {
	mux := runtime.NewServeMux(runtime.WithUnescapingMode(runtime.UnescapingModeAllCharacters))
	h := &handlers{mux: mux, checkout: checkout, profile: profile}

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/api/checkout", h.startCheckout},
		{http.MethodGet, "/api/checkout/{id}", h.getCheckout},
		{http.MethodPut, "/api/checkout/{id}/package", h.changePackage},
		{http.MethodPost, "/api/checkout/{id}/submit", h.submitPayment},
		{http.MethodDelete, "/api/checkout/{id}", h.cancelCheckout},
		{http.MethodGet, "/api/profile/{email}", h.getProfile},
		{http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			m.Handler().ServeHTTP(w, r)
		}},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.handler); err != nil {
			slog.Error("failed to register route", "method", rt.method, "pattern", rt.pattern, "err", err)
		}
	}
	return otelhttp.NewHandler(mux, "admin-checkout")
}
