// Package kernel builds the HTTP handler: global middleware, operational
// endpoints and the product routes.
package kernel

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/app/routes"
	"github.com/shashiranjanraj/productd/pkg/metrics"
	"github.com/shashiranjanraj/productd/pkg/middleware"
	"github.com/shashiranjanraj/productd/pkg/reqid"
	"github.com/shashiranjanraj/productd/pkg/response"
	"github.com/shashiranjanraj/productd/pkg/router"
)

// Pinger reports store reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel wires the middleware stack and every route.
//
// Global middleware (outermost → innermost):
//  1. Trailing-slash stripping, so /products/ routes like /products
//  2. Prometheus metrics
//  3. Request ID
//  4. Logger, which needs the request ID
//  5. Recovery, so panics are logged with the request ID
//  6. CORS
func NewHTTPKernel(products *controllers.ProductController, store Pinger) *HTTPKernel {
	r := router.New()

	r.Use(chimw.StripSlashes)
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "healthz", healthz(store))

	routes.RegisterAPI(r, products)

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Router() *router.Router { return k.router }

func healthz(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			response.Error(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		response.OK(w, "database is connected", nil)
	}
}
