package navigation

import (
	"context"
	"errors"
	"fmt"
)

// Route is a named view of the application
type Route string

const (
	RouteLogin     Route = "/"
	RouteBills     Route = "#employee/bills"
	RouteNewBill   Route = "#employee/bill/new"
	RouteDashboard Route = "#admin/dashboard"
)

// ErrUnknownRoute is returned when navigating to a route outside the table
var ErrUnknownRoute = errors.New("unknown route")

var pagePaths = map[Route]string{
	RouteLogin:     "/",
	RouteBills:     "/employee/bills",
	RouteNewBill:   "/employee/bill/new",
	RouteDashboard: "/admin/dashboard",
}

// Routes returns every known route
func Routes() []Route {
	return []Route{RouteLogin, RouteBills, RouteNewBill, RouteDashboard}
}

// IsValid reports whether r belongs to the route table
func (r Route) IsValid() bool {
	_, ok := pagePaths[r]
	return ok
}

// PagePath returns the HTTP path serving the route
func (r Route) PagePath() (string, error) {
	p, ok := pagePaths[r]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, r)
	}
	return p, nil
}

func (r Route) String() string {
	return string(r)
}

// Navigator swaps the displayed view
type Navigator interface {
	OnNavigate(ctx context.Context, route Route) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, route Route) error

// OnNavigate calls f
func (f NavigatorFunc) OnNavigate(ctx context.Context, route Route) error {
	return f(ctx, route)
}
