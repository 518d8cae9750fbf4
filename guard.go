package session

import (
	"context"
)

// Route describes a navigation target from the guard's perspective.
type Route struct {
	Path         string
	RequiresAuth bool
}

// Decision is the guard's verdict. When Allowed is false, RedirectTo names
// the route the caller should navigate to instead.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard gates route transitions on session state. It never decides while a
// rehydration is in flight: the decision waits until the manager's loading
// flag settles, then is made once.
type Guard struct {
	manager      SessionManager
	loginRoute   string
	defaultRoute string
	logger       Logger
}

// NewGuard returns a guard consulting the given session manager.
func NewGuard(manager SessionManager) *Guard {
	return &Guard{
		manager:      manager,
		loginRoute:   "/login",
		defaultRoute: "/dashboard",
		logger:       defLogger{},
	}
}

func (g *Guard) WithLoginRoute(route string) *Guard {
	if route != "" {
		g.loginRoute = route
	}
	return g
}

func (g *Guard) WithDefaultRoute(route string) *Guard {
	if route != "" {
		g.defaultRoute = route
	}
	return g
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Check decides a route transition. Auth-requiring routes redirect to the
// login route when the session is unauthenticated; the login route redirects
// to the default route when a session is already live.
func (g *Guard) Check(ctx context.Context, route Route) (Decision, error) {
	if err := g.manager.WaitUntilReady(ctx); err != nil {
		return Decision{}, err
	}

	authenticated := g.manager.IsAuthenticated()

	if route.RequiresAuth && !authenticated {
		g.logger.Info("redirecting unauthenticated session", "path", route.Path)
		return Decision{RedirectTo: g.loginRoute}, nil
	}

	if route.Path == g.loginRoute && authenticated {
		return Decision{RedirectTo: g.defaultRoute}, nil
	}

	return Decision{Allowed: true}, nil
}
