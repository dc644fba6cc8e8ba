package tool

import contractx "github.com/ordino-ai/ordino/agent/contract"

// Model-facing operation names. The catalog is fixed: exactly these eight
// operations exist, anything else is a hallucinated tool.
const (
	OpSearchRestaurants = "search_restaurants"
	OpGetMenu           = "get_menu"
	OpCreateCart        = "create_cart"
	OpCheckoutCart      = "checkout_cart"
	OpGetTrackingInfo   = "get_tracking_info"
	OpGetSavedAddresses = "get_saved_addresses"
	OpLoginStep1        = "login_step_1"
	OpLoginStep2        = "login_step_2"
)

// Wire names of the remote operations on the tool-execution service.
const (
	wireSearch       = "get_restaurants_for_keyword"
	wireMenu         = "get_menu_items_listing"
	wireCreateCart   = "create_cart"
	wireCheckoutCart = "checkout_cart"
	wireTrackingInfo = "get_order_tracking_info"
	wireAddresses    = "get_saved_addresses_for_user"
	wireBindPhone    = "bind_user_number"
	wireVerifyCode   = "bind_user_number_verify_code"
)

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func numProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

// Catalog declares the eight operations to the model backend.
func Catalog() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        OpSearchRestaurants,
			Description: "Search for restaurants near an address. Default limit is 20. Pass postback_params from a previous result to fetch the next page.",
			Parameters: map[string]any{
				"keyword":         strProp("Search keyword, e.g. a cuisine or restaurant name"),
				"address_id":      strProp("Delivery address id from get_saved_addresses"),
				"limit":           numProp("Maximum results per page"),
				"min_price":       numProp("Minimum price filter"),
				"max_price":       numProp("Maximum price filter"),
				"min_rating":      numProp("Minimum rating filter"),
				"postback_params": strProp("Opaque pagination token from a previous search result"),
			},
			Required: []string{"keyword", "address_id"},
		},
		{
			Name:        OpGetMenu,
			Description: "Get the menu listing for a restaurant, including item variants.",
			Parameters: map[string]any{
				"res_id":     strProp("Restaurant id from search_restaurants"),
				"address_id": strProp("Delivery address id"),
			},
			Required: []string{"res_id", "address_id"},
		},
		{
			Name:        OpCreateCart,
			Description: "Create a cart with the given items. Items with multiple variants must carry a variant_id.",
			Parameters: map[string]any{
				"res_id":     strProp("Restaurant id"),
				"address_id": strProp("Delivery address id"),
				"items": map[string]any{
					"type":        "array",
					"description": "Line items: {id, variant_id?, name, quantity}",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":         strProp("Catalog item id"),
							"variant_id": strProp("Variant id when the item has variants"),
							"name":       strProp("Item name"),
							"quantity":   numProp("Quantity"),
						},
					},
				},
				"payment_type": strProp("Payment type, defaults to upi_qr"),
			},
			Required: []string{"res_id", "address_id", "items"},
		},
		{
			Name:        OpCheckoutCart,
			Description: "Checkout a previously created cart. May return a payment QR image.",
			Parameters: map[string]any{
				"cart_id": strProp("Cart id returned by create_cart"),
			},
			Required: []string{"cart_id"},
		},
		{
			Name:        OpGetTrackingInfo,
			Description: "Get tracking info for the user's active orders.",
			Parameters:  map[string]any{},
		},
		{
			Name:        OpGetSavedAddresses,
			Description: "Get the user's saved delivery addresses.",
			Parameters:  map[string]any{},
		},
		{
			Name:        OpLoginStep1,
			Description: "Start login by binding a phone number. An OTP is sent to the user.",
			Parameters: map[string]any{
				"phone_number": strProp("User's phone number"),
			},
			Required: []string{"phone_number"},
		},
		{
			Name:        OpLoginStep2,
			Description: "Finish login by verifying the OTP code from step 1.",
			Parameters: map[string]any{
				"code": strProp("One-time code the user received"),
			},
			Required: []string{"code"},
		},
	}
}
