package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrInvalidRoute   = errors.New("invalid route")
)

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// one method+path binding; Handlers run in order, middleware first
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// every route the server exposes, declared up front
type Table []Route

// checks the whole table and returns every problem found, joined
func (t Table) Validate() error {
	var errs []error

	seen := make(map[string]int, len(t))

	for i, route := range t {
		if !allowedMethods[route.Method] {
			errs = append(errs, fmt.Errorf("%w: entry %d has method %q", ErrInvalidRoute, i, route.Method))
		}

		if !strings.HasPrefix(route.Path, "/") {
			errs = append(errs, fmt.Errorf("%w: entry %d path %q must start with /", ErrInvalidRoute, i, route.Path))
		}

		if len(route.Handlers) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s has no handlers", ErrInvalidRoute, route))
		}

		for _, h := range route.Handlers {
			if h == nil {
				errs = append(errs, fmt.Errorf("%w: %s has a nil handler", ErrInvalidRoute, route))
				break
			}
		}

		key := route.String()
		if first, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%w: %s declared at entries %d and %d", ErrDuplicateRoute, key, first, i))
			continue
		}

		seen[key] = i
	}

	return errors.Join(errs...)
}

// validates the table, then binds each route; nothing is bound when validation fails
func (t Table) Register(r gin.IRoutes) error {
	if err := t.Validate(); err != nil {
		return err
	}

	for _, route := range t {
		r.Handle(route.Method, route.Path, route.Handlers...)
	}

	return nil
}
