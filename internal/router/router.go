package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/handler"
	"github.com/iliyamo/stock-inventory/internal/metrics"
	"github.com/iliyamo/stock-inventory/internal/middleware"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

// Deps carries everything the route table needs.  RateLimit, Cache and DB
// are optional.
type Deps struct {
	Issuer *utils.TokenIssuer

	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Companies *handler.CompanyHandler
	Members   *handler.CompanyUserHandler
	Products  *handler.ProductHandler

	RateLimit echo.MiddlewareFunc
	Cache     *middleware.ProductCache
	DB        handler.Pinger
}

func (d Deps) refreshGuard() echo.MiddlewareFunc { return middleware.RefreshGuard(d.Issuer) }

func (d Deps) cacheMiddleware() echo.MiddlewareFunc {
	if d.Cache == nil {
		return nil
	}
	return d.Cache.Middleware()
}

func (d Deps) health() echo.HandlerFunc { return handler.Health(d.DB) }

func (d Deps) metrics() echo.HandlerFunc {
	metrics.Init()
	return metrics.Handler()
}

// RegisterRoutes registers the route table on e.  Every non-public route
// runs the access guard first, then the role guard when the route names
// roles, then the route's own middleware.
func RegisterRoutes(e *echo.Echo, d Deps) []Route {
	routes := Routes(d)

	public := make(map[string]bool, len(routes))
	for _, r := range routes {
		if r.Public {
			public[r.Method+" "+r.Path] = true
		}
	}
	access := middleware.AccessGuard(d.Issuer, func(c echo.Context) bool {
		return public[c.Request().Method+" "+c.Path()]
	})

	for _, r := range routes {
		var chain []echo.MiddlewareFunc
		if !r.Public {
			chain = append(chain, access)
		}
		if len(r.Roles) > 0 {
			chain = append(chain, middleware.RequireRole(r.Roles...))
		}
		chain = append(chain, r.Middleware...)
		e.Add(r.Method, r.Path, r.Handler, chain...)
	}
	return routes
}
