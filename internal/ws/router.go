package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidMessage marks frames that never reach the game service: unknown
// command types, malformed JSON, or missing required fields.
var ErrInvalidMessage = errors.New("invalid message")

// ConnContext identifies the connection a command arrived on.
type ConnContext struct {
	ConnID string
}

// internal (untyped) handler signature.
type rawHandler func(c *ConnContext, raw json.RawMessage) error

// Router keeps a map[commandType]handler, à-la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]rawHandler),
		validate: validator.New(),
	}
}

// Register binds a command type to a strongly-typed handler. The raw frame is
// decoded into Req and validated before the handler runs.
func Register[Req any](r *Router, cmdType string, h func(c *ConnContext, req Req) error) {
	if cmdType == "" {
		panic("ws router: empty command type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[cmdType] = func(c *ConnContext, raw json.RawMessage) error {
		var req Req
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidMessage, err)
			}
		}
		if err := r.validate.Struct(&req); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMessage, err)
		}
		return h(c, req)
	}
}

// dispatch is called by the server's reader loop with the whole frame; the
// typed request fields sit at the top level next to "type".
func (r *Router) dispatch(c *ConnContext, cmdType string, raw json.RawMessage) error {
	r.mu.RLock()
	h, ok := r.handlers[cmdType]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, cmdType)
	}
	return h(c, raw)
}
