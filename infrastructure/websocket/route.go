package websocket

import (
	"crm-realtime/contract"
	"crm-realtime/domain"
	"encoding/json"
)

// Route picks the handler of a decoded payload, false when the payload is ignored.
type Route func(fields map[string]json.RawMessage) (contract.Handler, bool)

// Endpoint binds a URL to its group and routing policy.
type Endpoint struct {
	Path  string
	Group domain.GroupName
	Route Route
}

// ByAction routes on the "action" discriminator. Unknown or missing actions are ignored.
func ByAction(handlers map[string]contract.Handler) Route {
	return func(fields map[string]json.RawMessage) (contract.Handler, bool) {
		var action string
		if err := json.Unmarshal(fields["action"], &action); err != nil {
			return nil, false
		}
		h, ok := handlers[action]
		return h, ok
	}
}

func Single(handler contract.Handler) Route {
	return func(map[string]json.RawMessage) (contract.Handler, bool) {
		return handler, true
	}
}
