package returns

import (
	"fmt"

	"github.com/cornjacket/returns-service/internal/client/orders"
)

// PayloadShaper adds order data to a return.created event payload.
// order may be nil when the validator returned no data.
type PayloadShaper func(payload map[string]any, order *orders.Order)

// SummaryPayload forwards the order status and total price.
func SummaryPayload(payload map[string]any, order *orders.Order) {
	if order == nil {
		return
	}
	payload["order_status"] = order.Status
	payload["total_price"] = order.TotalPrice
}

// FullOrderPayload forwards the complete order document under "order".
func FullOrderPayload(payload map[string]any, order *orders.Order) {
	if order == nil || order.Raw == nil {
		return
	}
	payload["order"] = order.Raw
}

// NoOrderPayload leaves the payload untouched.
func NoOrderPayload(map[string]any, *orders.Order) {}

// ShaperFor returns the shaper registered under name ("summary", "full" or "none").
func ShaperFor(name string) (PayloadShaper, error) {
	switch name {
	case "summary", "":
		return SummaryPayload, nil
	case "full":
		return FullOrderPayload, nil
	case "none":
		return NoOrderPayload, nil
	default:
		return nil, fmt.Errorf("unknown order payload variant %q", name)
	}
}

func createdPayload(ret *Return) map[string]any {
	return map[string]any{
		"return_id": ret.ID,
		"order_id":  ret.OrderID,
		"reason":    ret.Reason,
		"status":    ret.Status,
	}
}

func statusPayload(ret *Return) map[string]any {
	return map[string]any{
		"return_id": ret.ID,
		"order_id":  ret.OrderID,
		"status":    ret.Status,
	}
}
