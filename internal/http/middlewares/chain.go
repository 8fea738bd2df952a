package middlewares

import (
	"net/http"
	"slices"
)

type Middleware func(http.Handler) http.Handler

// Chain envuelve h con mws; mws[0] queda afuera de todo.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for _, m := range slices.Backward(mws) {
		h = m(h)
	}
	return h
}
