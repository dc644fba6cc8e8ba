package contract

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool"
)

// Turn is one entry of a session's conversation history. History is
// append-only and replayed verbatim to the model on every invocation, so a
// Turn carries enough to reconstruct the original exchange: plain text for
// user/assistant turns, the requested calls for an assistant tool-call turn,
// and the paired results for a tool-result turn.
type Turn struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	At          time.Time    `json:"at"`
}

// ToolCall is a model-issued request to invoke one catalog operation.
// It is consumed exactly once by the dispatcher.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult pairs 1:1 with a ToolCall in the same exchange. Exactly one of
// Content/Error is meaningful; Error is a description the model can react to,
// never a Go error that escapes the dispatcher.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ToolSchema declares one catalog operation to the model backend.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Required    []string       `json:"required,omitempty"`
}

// ModelResponse is the backend's answer for one invocation: either a final
// textual answer or a non-empty set of tool calls, never both.
type ModelResponse struct {
	FinalText string
	ToolCalls []ToolCall
}

// Payload is what one tool-service call yields: joined text content plus an
// optional binary attachment (e.g. a payment QR image).
type Payload struct {
	Text      string
	ImageData []byte
	ImageMIME string
}

// OrderStatus is the internal order lifecycle state. Raw external statuses
// are free-form strings and get mapped onto this set.
type OrderStatus string

const (
	StatusCreated        OrderStatus = "created"
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusInProgress     OrderStatus = "in_progress"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusUnknown        OrderStatus = "unknown"
)

// OrderRecord is the ledger's view of one cart/order.
type OrderRecord struct {
	CartID       string      `json:"cart_id"`
	RestaurantID string      `json:"restaurant_id"`
	Items        []CartItem  `json:"items,omitempty"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CartItem is one line item of a cart. Items belonging to a multi-variant
// catalog entry must carry VariantID before the cart is submitted.
type CartItem struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}
