package emit

import "context"

// NullEmitter discards every event. It is the default emitter when a
// Workflow is built with no WithEmitter option, so observability is opt-in
// rather than mandatory.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter. Safe for concurrent use; costs
// nothing beyond the interface dispatch.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards event.
func (n *NullEmitter) Emit(event Event) {
}

// EmitBatch discards events and always reports success.
func (n *NullEmitter) EmitBatch(ctx context.Context, events []Event) error {
	return nil
}

// Flush is a no-op: there is nothing buffered to send.
func (n *NullEmitter) Flush(ctx context.Context) error {
	return nil
}
