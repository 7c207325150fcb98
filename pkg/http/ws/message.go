package ws

import "encoding/json"

// MessageType constants for the session push protocol.
const (
	// Server -> Client
	TypeLocksChanged      = "locks_changed"
	TypeListChanged       = "list_changed"
	TypeDuplicatesChanged = "duplicates_changed"
	TypeWarning           = "warning"
	TypePong              = "pong"

	// Client -> Server
	TypePing = "ping"
)

// Message wraps every payload with its type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals a typed payload into a Message.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// LocksChangedPayload tells subscribed views to rehydrate their lock state.
type LocksChangedPayload struct {
	ItemLocks     int `json:"item_locks"`
	CategoryLocks int `json:"category_locks"`
}

// ListChangedPayload announces a resampling pass and which mode applied.
type ListChangedPayload struct {
	Mode string `json:"mode"`
}

// DuplicatesChangedPayload announces duplicate-group resolution.
type DuplicatesChangedPayload struct {
	ActiveGroups int `json:"active_groups"`
}

// WarningPayload carries a non-blocking diagnostic, e.g. an identifier
// collision.
type WarningPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
