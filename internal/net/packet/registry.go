package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// HandlerFunc is the callback signature for command handlers.
type HandlerFunc func(c Command)

// Registry maps ops to handlers.
type Registry struct {
	handlers map[Op]HandlerFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[Op]HandlerFunc),
		log:      log,
	}
}

// Register maps an op to a handler, replacing any previous one.
func (reg *Registry) Register(op Op, fn HandlerFunc) {
	reg.handlers[op] = fn
}

// Dispatch calls the handler registered for c.Op. Commands without a
// handler are ignored.
func (reg *Registry) Dispatch(c Command) error {
	reg.log.Debug("command received", zap.String("op", string(c.Op)))

	fn, ok := reg.handlers[c.Op]
	if !ok {
		reg.log.Debug("no handler for command", zap.String("op", string(c.Op)))
		return nil
	}
	return reg.safeCall(fn, c)
}

// safeCall executes a handler with panic recovery so a bad command cannot
// take down the game loop.
func (reg *Registry) safeCall(fn HandlerFunc, c Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("command handler panic recovered",
				zap.String("op", string(c.Op)),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for op %s: %v", c.Op, rec)
		}
	}()
	fn(c)
	return nil
}
