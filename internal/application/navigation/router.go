package navigation

import (
	"context"
	"fmt"
	"sync"
)

// PageLoader renders the view behind a route
type PageLoader func(ctx context.Context) error

// Router maps routes to page loaders and keeps the navigation history
type Router struct {
	mu      sync.Mutex
	pages   map[Route]PageLoader
	current Route
	history []Route
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{pages: make(map[Route]PageLoader)}
}

// Handle registers the loader for a route
func (r *Router) Handle(route Route, loader PageLoader) {
	if !route.IsValid() {
		panic(fmt.Sprintf("invalid route: %s", route))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[route] = loader
}

// OnNavigate records the route and runs its loader. The route becomes current
// even when the loader fails, so the error view is shown on that page.
func (r *Router) OnNavigate(ctx context.Context, route Route) error {
	if !route.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}

	r.mu.Lock()
	loader := r.pages[route]
	r.current = route
	r.history = append(r.history, route)
	r.mu.Unlock()

	if loader == nil {
		return nil
	}
	if err := loader(ctx); err != nil {
		return fmt.Errorf("load %s: %w", route, err)
	}
	return nil
}

// Current returns the route last navigated to
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns every route navigated to, oldest first
func (r *Router) History() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.history...)
}

// Redirector remembers the last requested route so an HTTP handler can
// answer with a redirect to its page path
type Redirector struct {
	mu    sync.Mutex
	route Route
}

// OnNavigate records route
func (r *Redirector) OnNavigate(_ context.Context, route Route) error {
	if !route.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}
	r.mu.Lock()
	r.route = route
	r.mu.Unlock()
	return nil
}

// Location returns the page path of the recorded route and whether one was recorded
func (r *Redirector) Location() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.route == "" {
		return "", false
	}
	p, err := r.route.PagePath()
	return p, err == nil
}

var (
	_ Navigator = (*Router)(nil)
	_ Navigator = (*Redirector)(nil)
)
