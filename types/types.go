package types

// Action identifies what a relayed event asks the receiver to do.
type Action = string

const (
	// SessionInvalidated tells receivers to stop trusting cached auth state.
	SessionInvalidated Action = "session_invalidated"
)

// InvalidationEvent represents an auth invalidation relayed between client instances.
// Only the fact of invalidation crosses the wire: cache contents never do.
type InvalidationEvent struct {
	Sender string `json:"sender" msgpack:"sender"`
	Action string `json:"action" msgpack:"action"`
	Tick   uint64 `json:"tick" msgpack:"tick"` // sender's tick after the increment
}
