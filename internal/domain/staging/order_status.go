package staging

import "strings"

// OrderStatusClass classifies a platform order status for import filtering.
type OrderStatusClass int

const (
	// OrderStatusProceed means the line enters the staging grid.
	OrderStatusProceed OrderStatusClass = iota
	// OrderStatusSkipCancelled means the order was cancelled or closed.
	OrderStatusSkipCancelled
	// OrderStatusSkipUnpaid means the buyer never paid.
	OrderStatusSkipUnpaid
)

// Reason returns the skip reason recorded in the import report.
func (c OrderStatusClass) Reason() string {
	switch c {
	case OrderStatusSkipCancelled:
		return "order cancelled"
	case OrderStatusSkipUnpaid:
		return "order unpaid"
	default:
		return ""
	}
}

var cancelledStatuses = []string{
	"cancelled", "canceled", "closed", "trade_closed",
	"已取消", "交易关闭", "已关闭",
}

var unpaidStatuses = []string{
	"unpaid", "pending_payment", "awaiting payment", "wait_buyer_pay",
	"未付款", "待付款", "等待买家付款",
}

// ClassifyOrderStatus decides whether an import line with the given platform
// order status enters the grid. A pending cancellation request is NOT a
// cancellation: the buyer asked but the seller has not confirmed, so the
// shipment still proceeds.
func ClassifyOrderStatus(status string) OrderStatusClass {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return OrderStatusProceed
	}

	if strings.Contains(s, "cancellation requested") ||
		strings.Contains(s, "cancel requested") ||
		strings.Contains(s, "申请取消") ||
		strings.Contains(s, "取消申请") {
		return OrderStatusProceed
	}

	for _, c := range cancelledStatuses {
		if strings.Contains(s, c) {
			return OrderStatusSkipCancelled
		}
	}
	for _, u := range unpaidStatuses {
		if strings.Contains(s, u) {
			return OrderStatusSkipUnpaid
		}
	}
	return OrderStatusProceed
}
