package routes

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry = map[string]group{}

// Register adds a named route group from an init func. Names must be unique;
// the extra middlewares wrap only this group.
func Register(name string, reg Registrar, mws ...Middleware) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("routes: group %q registered twice", name))
	}
	registry[name] = group{name: name, reg: reg, mws: mws}
}

// RegisterAll mounts every group in name order and returns the names mounted.
// Called once from httpserver.New.
func RegisterAll(r chi.Router, d deps.Deps) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := registry[name]
		if len(g.mws) == 0 {
			g.reg(r, d)
		} else {
			g.reg(r.With(g.mws...), d)
		}
	}
	if d.Logger != nil {
		d.Logger.Debug("routes mounted", logger.Strings("groups", names))
	}
	return names
}
