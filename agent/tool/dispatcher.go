package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/ordino-ai/ordino/agent/contract"
	ledgerx "github.com/ordino-ai/ordino/agent/ledger"
	sessionx "github.com/ordino-ai/ordino/agent/session"
)

type handler func(ctx context.Context, sess *sessionx.Session, args map[string]any) (string, error)

// Dispatcher maps catalog operation names to handlers, normalizes arguments,
// issues exactly one tool-service call per tool call, and folds every failure
// into a ToolResult the model can react to. Nothing here panics or returns a
// Go error to the loop.
type Dispatcher struct {
	service  contractx.ToolService
	ledger   contractx.Ledger
	qrDir    string
	handlers map[string]handler
}

func NewDispatcher(service contractx.ToolService, ledger contractx.Ledger, qrDir string) *Dispatcher {
	d := &Dispatcher{
		service: service,
		ledger:  ledger,
		qrDir:   strings.TrimSpace(qrDir),
	}
	if d.qrDir == "" {
		d.qrDir = "qrcodes"
	}
	d.handlers = map[string]handler{
		OpSearchRestaurants: d.searchRestaurants,
		OpGetMenu:           d.getMenu,
		OpCreateCart:        d.createCart,
		OpCheckoutCart:      d.checkoutCart,
		OpGetTrackingInfo:   d.getTrackingInfo,
		OpGetSavedAddresses: d.getSavedAddresses,
		OpLoginStep1:        d.loginStep1,
		OpLoginStep2:        d.loginStep2,
	}
	return d
}

// Execute runs one tool call and always returns a result, in the same
// position its call occupied. Unknown operations and handler failures come
// back as error results, never as raised errors.
func (d *Dispatcher) Execute(ctx context.Context, sess *sessionx.Session, call contractx.ToolCall) contractx.ToolResult {
	result := contractx.ToolResult{CallID: call.ID, Name: call.Name}

	h, ok := d.handlers[call.Name]
	if !ok {
		result.Error = fmt.Sprintf("%v: %q is not an available operation", contractx.ErrToolNotFound, call.Name)
		return result
	}

	content, err := h(ctx, sess, call.Args)
	if err != nil {
		switch {
		case errors.Is(err, contractx.ErrToolServiceUnavailable):
			result.Error = "tool service is not connected; ask the user to try again shortly"
		default:
			result.Error = err.Error()
		}
		log.Debug().Str("tool", call.Name).Err(err).Msg("tool call failed")
		return result
	}
	result.Content = content
	return result
}

/* ------------------------------- handlers ------------------------------- */

func (d *Dispatcher) searchRestaurants(ctx context.Context, _ *sessionx.Session, args map[string]any) (string, error) {
	keyword, ok := argString(args, "keyword")
	if !ok {
		return "", fmt.Errorf("%w: keyword is required", contractx.ErrArgument)
	}
	addressID, ok := argString(args, "address_id")
	if !ok {
		return "", fmt.Errorf("%w: address_id is required", contractx.ErrArgument)
	}

	limit := 20
	if n, ok := argInt(args, "limit"); ok && n > 0 {
		limit = n
	}

	forward := map[string]any{
		"keyword":    keyword,
		"address_id": addressID,
		"page_size":  limit,
	}
	if postback, ok := argMapping(args, "postback_params"); ok {
		forward["postback_params"] = postback
	}

	filter := map[string]any{}
	if v, ok := argFloat(args, "min_price"); ok && v > 0 {
		filter["min_price"] = v
	}
	if v, ok := argFloat(args, "max_price"); ok && v > 0 {
		filter["max_price"] = v
	}
	if v, ok := argFloat(args, "min_rating"); ok && v > 0 {
		filter["min_rating"] = v
	}
	if len(filter) > 0 {
		forward["filter"] = filter
	}

	payload, err := d.service.Call(ctx, wireSearch, forward)
	if err != nil {
		return "", err
	}
	return summarizeSearch(payload.Text), nil
}

func (d *Dispatcher) getMenu(ctx context.Context, _ *sessionx.Session, args map[string]any) (string, error) {
	// res_id stays in its wire form: the remote service types it numerically.
	resID, ok := argScalar(args, "res_id")
	if !ok {
		return "", fmt.Errorf("%w: res_id is required", contractx.ErrArgument)
	}
	addressID, ok := argString(args, "address_id")
	if !ok {
		return "", fmt.Errorf("%w: address_id is required", contractx.ErrArgument)
	}

	payload, err := d.service.Call(ctx, wireMenu, map[string]any{
		"res_id":     resID,
		"address_id": addressID,
	})
	if err != nil {
		return "", err
	}
	return payload.Text, nil
}

func (d *Dispatcher) createCart(ctx context.Context, sess *sessionx.Session, args map[string]any) (string, error) {
	resID, ok := argScalar(args, "res_id")
	if !ok {
		return "", fmt.Errorf("%w: res_id is required", contractx.ErrArgument)
	}
	addressID, ok := argString(args, "address_id")
	if !ok {
		return "", fmt.Errorf("%w: address_id is required", contractx.ErrArgument)
	}
	items, err := argItemList(args, "items")
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrArgument, err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: items must not be empty", contractx.ErrArgument)
	}
	inferVariantIDs(items)

	paymentType := "upi_qr"
	if p, ok := argString(args, "payment_type"); ok {
		paymentType = p
	}

	payload, err := d.service.Call(ctx, wireCreateCart, map[string]any{
		"res_id":       resID,
		"address_id":   addressID,
		"items":        items,
		"payment_type": paymentType,
	})
	if err != nil {
		return "", err
	}

	// Ledger recording is best-effort: an unidentifiable cart id or a failed
	// write must not fail the call itself.
	if cartID := parseCartID(payload.Text); cartID != "" {
		if err := d.ledger.RecordCartCreated(ctx, sess.UserID, cartID, anyToString(resID), toCartItems(items)); err != nil {
			log.Warn().Err(err).Str("cart_id", cartID).Msg("ledger cart record failed")
		}
	}
	return payload.Text, nil
}

func (d *Dispatcher) checkoutCart(ctx context.Context, sess *sessionx.Session, args map[string]any) (string, error) {
	cartID, ok := argString(args, "cart_id")
	if !ok {
		return "", fmt.Errorf("%w: cart_id is required", contractx.ErrArgument)
	}

	payload, err := d.service.Call(ctx, wireCheckoutCart, map[string]any{"cart_id": cartID})
	if err != nil {
		return "", err
	}

	// The call succeeding is the state-machine event, not the payload shape.
	if err := d.ledger.UpdateOrderStatus(ctx, cartID, contractx.StatusPendingPayment); err != nil {
		log.Warn().Err(err).Str("cart_id", cartID).Msg("ledger status update failed")
	}

	out := payload.Text
	if len(payload.ImageData) > 0 {
		path, err := d.saveQRImage(cartID, payload.ImageData)
		if err != nil {
			log.Warn().Err(err).Str("cart_id", cartID).Msg("failed to persist QR image")
			out = appendLine(out, "[QR Code Image Received but failed to save]")
		} else {
			out = appendLine(out, FormatQRMarker(path))
			sess.QueueTracking(cartID)
		}
	}
	return out, nil
}

func (d *Dispatcher) getTrackingInfo(ctx context.Context, sess *sessionx.Session, _ map[string]any) (string, error) {
	payload, err := d.service.Call(ctx, wireTrackingInfo, map[string]any{})
	if err != nil {
		return "", err
	}
	d.syncTrackingStatuses(ctx, payload.Text)

	out := payload.Text
	if nothingActive(out) {
		if history := d.recentOrderSummary(ctx, sess.UserID); history != "" {
			out = appendLine(out, history)
		}
	}
	return out, nil
}

func (d *Dispatcher) getSavedAddresses(ctx context.Context, _ *sessionx.Session, _ map[string]any) (string, error) {
	payload, err := d.service.Call(ctx, wireAddresses, map[string]any{})
	if err != nil {
		return "", err
	}
	return payload.Text, nil
}

func (d *Dispatcher) loginStep1(ctx context.Context, sess *sessionx.Session, args map[string]any) (string, error) {
	phone, ok := argString(args, "phone_number")
	if !ok {
		return "", fmt.Errorf("%w: phone_number is required", contractx.ErrArgument)
	}

	payload, err := d.service.Call(ctx, wireBindPhone, map[string]any{"phone_number": phone})
	if err != nil {
		return "", err
	}
	sess.BeginLogin(payload.Text)
	return payload.Text, nil
}

func (d *Dispatcher) loginStep2(ctx context.Context, sess *sessionx.Session, args map[string]any) (string, error) {
	code, ok := argString(args, "code")
	if !ok {
		return "", fmt.Errorf("%w: code is required", contractx.ErrArgument)
	}

	artifact, ready := sess.PendingArtifact()
	if !ready {
		return "", fmt.Errorf("%w: run login_step_1 first", contractx.ErrSequence)
	}

	// The verify step needs the bind artifact verbatim; when the artifact is
	// a JSON object it is forwarded in structured form.
	var authPacket any = artifact
	var decoded map[string]any
	if err := json.Unmarshal([]byte(artifact), &decoded); err == nil {
		authPacket = decoded
	}

	payload, err := d.service.Call(ctx, wireVerifyCode, map[string]any{
		"auth_packet": authPacket,
		"code":        code,
	})
	if err != nil {
		return "", err
	}
	sess.CompleteLogin()
	return payload.Text, nil
}

/* ------------------------------- internals ------------------------------ */

// inferVariantIDs promotes variant-shaped ids (v_* convention) to variant_id
// on items that lack one. Ambiguous items are left untouched; resolving them
// is the conversation layer's job, never fabrication here.
func inferVariantIDs(items []map[string]any) {
	for _, item := range items {
		if _, has := item["variant_id"]; has {
			continue
		}
		id := anyToString(item["id"])
		if strings.HasPrefix(id, "v_") {
			item["variant_id"] = id
		}
	}
}

func toCartItems(items []map[string]any) []contractx.CartItem {
	out := make([]contractx.CartItem, 0, len(items))
	for _, item := range items {
		quantity := 1
		if q, ok := argInt(item, "quantity"); ok && q > 0 {
			quantity = q
		}
		out = append(out, contractx.CartItem{
			ID:        anyToString(item["id"]),
			VariantID: anyToString(item["variant_id"]),
			Name:      anyToString(item["name"]),
			Quantity:  quantity,
		})
	}
	return out
}

func parseCartID(raw string) string {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return ""
	}
	if id := anyToString(decoded["id"]); id != "" {
		return id
	}
	return anyToString(decoded["cart_id"])
}

func (d *Dispatcher) saveQRImage(cartID string, data []byte) (string, error) {
	if err := os.MkdirAll(d.qrDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.qrDir, "checkout_"+cartID+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// syncTrackingStatuses opportunistically mirrors {order id, status} pairs
// from a tracking response into the ledger. Parse failures are swallowed: the
// raw response still goes back to the model either way.
func (d *Dispatcher) syncTrackingStatuses(ctx context.Context, raw string) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return
	}

	var orders []any
	switch v := decoded.(type) {
	case []any:
		orders = v
	case map[string]any:
		if list, ok := v["orders"].([]any); ok {
			orders = list
		} else {
			orders = []any{v}
		}
	default:
		return
	}

	for _, entry := range orders {
		order, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		status := anyToString(order["order_status"])
		if status == "" {
			status = anyToString(order["status"])
		}
		id := anyToString(order["cart_id"])
		if id == "" {
			id = anyToString(order["order_id"])
		}
		if id == "" || status == "" {
			continue
		}
		if err := d.ledger.UpdateOrderStatus(ctx, id, ledgerx.MapStatus(status)); err != nil {
			log.Debug().Err(err).Str("order_id", id).Msg("tracking status sync failed")
		}
	}
}

func nothingActive(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "[]" || trimmed == "{}" {
		return true
	}
	return strings.Contains(strings.ToLower(trimmed), "no active orders")
}

// recentOrderSummary pulls the user's latest ledger entries so the model has
// something to answer with when nothing is being tracked live.
func (d *Dispatcher) recentOrderSummary(ctx context.Context, userID string) string {
	records, err := d.ledger.ListRecentOrders(ctx, userID, 5)
	if err != nil {
		log.Debug().Err(err).Str("user", userID).Msg("recent order lookup failed")
		return ""
	}
	if len(records) == 0 {
		return ""
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, "Recent orders:")
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("- cart %s | restaurant %s | status %s", rec.CartID, rec.RestaurantID, rec.Status))
	}
	return strings.Join(lines, "\n")
}

func appendLine(base, line string) string {
	if strings.TrimSpace(base) == "" {
		return line
	}
	return base + "\n" + line
}
