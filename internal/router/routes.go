package router // router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/model"
)

// Route is one entry of the route table.  Public routes skip the access
// guard; a non-empty Roles restricts the route to those roles.  Middleware
// runs after the guards, closest to the handler.
type Route struct {
	Method     string
	Path       string
	Public     bool
	Roles      []model.Role
	Handler    echo.HandlerFunc
	Middleware []echo.MiddlewareFunc
}

// Routes returns the complete route table for d.
func Routes(d Deps) []Route {
	var (
		limited = optional(d.RateLimit)
		cached  = optional(d.cacheMiddleware())
		ceo     = []model.Role{model.RoleCeo}
		staff   = model.StaffRoles
	)
	return []Route{
		// ---- Auth ----
		{Method: http.MethodPost, Path: "/auth/login", Public: true, Handler: d.Auth.Login, Middleware: limited},
		// refresh is authenticated by the refresh guard, not the access guard
		{Method: http.MethodPost, Path: "/auth/refresh", Public: true, Handler: d.Auth.Refresh,
			Middleware: append(limited, d.refreshGuard())},
		{Method: http.MethodPost, Path: "/auth/logout", Handler: d.Auth.Logout},
		{Method: http.MethodGet, Path: "/auth/me", Handler: d.Auth.Me},
		{Method: http.MethodPost, Path: "/signup", Public: true, Handler: d.Users.Signup, Middleware: limited},

		// ---- Companies ----
		{Method: http.MethodPost, Path: "/companies", Handler: d.Companies.Create},
		{Method: http.MethodPatch, Path: "/companies", Roles: ceo, Handler: d.Companies.Update},
		{Method: http.MethodDelete, Path: "/companies", Roles: ceo, Handler: d.Companies.Delete},

		// ---- Company users ----
		{Method: http.MethodGet, Path: "/company-users", Roles: staff, Handler: d.Members.List},
		{Method: http.MethodPatch, Path: "/company-users/:id", Roles: []model.Role{model.RoleCeo, model.RoleAdmin}, Handler: d.Members.Remove},
		{Method: http.MethodPatch, Path: "/company-users/:id/role", Roles: ceo, Handler: d.Members.ChangeRole},

		// ---- Products ----
		{Method: http.MethodPost, Path: "/products", Roles: staff, Handler: d.Products.Create},
		{Method: http.MethodGet, Path: "/products", Roles: staff, Handler: d.Products.List, Middleware: cached},
		{Method: http.MethodGet, Path: "/products/search", Roles: staff, Handler: d.Products.Search, Middleware: cached},
		{Method: http.MethodGet, Path: "/products/:id", Roles: staff, Handler: d.Products.Get, Middleware: cached},
		{Method: http.MethodPut, Path: "/products/:id", Roles: staff, Handler: d.Products.Update},
		{Method: http.MethodDelete, Path: "/products/:id", Roles: staff, Handler: d.Products.Delete},

		// ---- Ops ----
		{Method: http.MethodGet, Path: "/healthz", Public: true, Handler: d.health()},
		{Method: http.MethodGet, Path: "/metrics", Public: true, Handler: d.metrics()},
	}
}

// optional returns a fresh one-element slice for mw, or nil when mw is nil.
func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
