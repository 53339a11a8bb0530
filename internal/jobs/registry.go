package jobs

import (
	"context"
	"fmt"
	"sync"

	types "github.com/talentloop/talentloop-backend/internal/domain"
)

// Handler recomputes one derived artifact. A returned error sends the item
// back through the queue's retry path.
type Handler interface {
	Run(ctx context.Context, item *types.RecomputeItem) error
}

type HandlerFunc func(ctx context.Context, item *types.RecomputeItem) error

func (f HandlerFunc) Run(ctx context.Context, item *types.RecomputeItem) error { return f(ctx, item) }

// Registry maps item types to handlers. Registration happens at wiring time;
// lookups are concurrent.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

func (r *Registry) Register(itemType string, h Handler) error {
	if itemType == "" || h == nil {
		return fmt.Errorf("registry: item type and handler required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[itemType]; dup {
		return fmt.Errorf("registry: handler for %q already registered", itemType)
	}
	r.handlers[itemType] = h
	return nil
}

func (r *Registry) Get(itemType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[itemType]
	return h, ok
}
