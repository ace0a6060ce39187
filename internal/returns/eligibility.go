// Package returns implements the returns workflow: deciding which order
// line items are still returnable and submitting return requests against
// the commerce backend.
package returns

import (
	"github.com/dkralj/storefront/internal/medusa"
)

// ReturnableQuantity derives how many units of a line item can still be
// returned from the backend's fulfillment counters:
// max(0, delivered - requested - received - writtenOff).
// A missing detail record counts as zero for every counter.
func ReturnableQuantity(item medusa.OrderLineItem) int {
	if item.Detail == nil {
		return 0
	}
	d := item.Detail
	q := d.DeliveredQuantity - d.ReturnRequestedQuantity - d.ReturnReceivedQuantity - d.WrittenOffQuantity
	if q < 0 {
		return 0
	}
	return q
}

// IsItemReturnable reports whether at least one unit of the item can be returned.
func IsItemReturnable(item medusa.OrderLineItem) bool {
	return ReturnableQuantity(item) > 0
}

// HasReturnableItems reports whether any line item of the order is returnable.
func HasReturnableItems(order *medusa.Order) bool {
	if order == nil {
		return false
	}
	for _, item := range order.Items {
		if IsItemReturnable(item) {
			return true
		}
	}
	return false
}

// ItemWithReturnStatus augments a line item with its derived delivery and
// return state for rendering.
type ItemWithReturnStatus struct {
	medusa.OrderLineItem

	DeliveredQuantity  int  `json:"deliveredQuantity"`
	ReturnableQuantity int  `json:"returnableQuantity"`
	IsDelivered        bool `json:"isDelivered"`
	IsReturnable       bool `json:"isReturnable"`
}

// EnhanceItemsWithReturnStatus maps line items to their augmented projection.
// Pure; the input slice is not modified.
func EnhanceItemsWithReturnStatus(items []medusa.OrderLineItem) []ItemWithReturnStatus {
	enhanced := make([]ItemWithReturnStatus, 0, len(items))
	for _, item := range items {
		delivered := 0
		if item.Detail != nil {
			delivered = item.Detail.DeliveredQuantity
		}
		returnable := ReturnableQuantity(item)
		enhanced = append(enhanced, ItemWithReturnStatus{
			OrderLineItem:      item,
			DeliveredQuantity:  delivered,
			ReturnableQuantity: returnable,
			IsDelivered:        delivered > 0,
			IsReturnable:       returnable > 0,
		})
	}
	return enhanced
}

// OrderReturnStatus aggregates the fulfillment counters across all items
// of an order.
//
// IsFullyReturned and IsPartiallyReturned are mutually exclusive by
// construction; when TotalDelivered is zero both are false.
type OrderReturnStatus struct {
	HasReturns           bool `json:"hasReturns"`
	TotalDelivered       int  `json:"totalDelivered"`
	TotalReturnRequested int  `json:"totalReturnRequested"`
	TotalReturnReceived  int  `json:"totalReturnReceived"`
	IsFullyReturned      bool `json:"isFullyReturned"`
	IsPartiallyReturned  bool `json:"isPartiallyReturned"`
	HasReturnRequests    bool `json:"hasReturnRequests"`
}

// GetOrderReturnStatus computes the aggregate return status of an order.
// Items without a detail record contribute nothing to the totals.
func GetOrderReturnStatus(order *medusa.Order) OrderReturnStatus {
	var status OrderReturnStatus
	if order == nil {
		return status
	}

	for _, item := range order.Items {
		if item.Detail == nil {
			continue
		}
		status.TotalDelivered += item.Detail.DeliveredQuantity
		status.TotalReturnRequested += item.Detail.ReturnRequestedQuantity
		status.TotalReturnReceived += item.Detail.ReturnReceivedQuantity
	}

	status.HasReturns = status.TotalReturnRequested > 0 || status.TotalReturnReceived > 0
	status.IsFullyReturned = status.TotalDelivered > 0 && status.TotalReturnReceived >= status.TotalDelivered
	status.IsPartiallyReturned = status.TotalReturnReceived > 0 && status.TotalReturnReceived < status.TotalDelivered
	status.HasReturnRequests = status.TotalReturnRequested > 0
	return status
}
