package contract

import "context"

// ModelBackend is the language-model collaborator. Given the full history and
// the fixed operation catalog it returns either a final answer or a non-empty
// set of requested tool calls.
type ModelBackend interface {
	Complete(ctx context.Context, history []Turn, catalog []ToolSchema) (ModelResponse, error)
}

// ToolService is the remote tool-execution collaborator. The connection is
// established once at process start; Call returns ErrToolServiceUnavailable
// while no connection is up.
type ToolService interface {
	Call(ctx context.Context, name string, args map[string]any) (Payload, error)
}

// Ledger is the persistence collaborator for carts and orders. Writes are
// best-effort from the dispatcher's point of view: a failed write never aborts
// the tool call whose result triggered it.
type Ledger interface {
	RecordCartCreated(ctx context.Context, userID, cartID, restaurantID string, items []CartItem) error
	UpdateOrderStatus(ctx context.Context, cartID string, status OrderStatus) error
	ListRecentOrders(ctx context.Context, userID string, limit int) ([]OrderRecord, error)
}

// Notifier is the messaging front-end collaborator.
type Notifier interface {
	DeliverText(ctx context.Context, userID string, text string) error
	DeliverImage(ctx context.Context, userID string, imagePath string) error
}
