package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Handlers registers several domain handlers on one router.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(router *httprouter.Router) {
	for _, h := range hs {
		h.RegisterRoutes(router)
	}
}

// Worker is a background process owned by the application lifecycle.
type Worker interface {
	Start(ctx context.Context) error
	Stop()
}
