package staging

import (
	"context"

	"github.com/shopspring/decimal"
)

// ImportLine is one normalized order line produced by a platform parser.
type ImportLine struct {
	TrackingNumber string
	OrderID        string
	Customer       string
	LineItemName   string
	Quantity       decimal.Decimal
	TotalPrice     decimal.Decimal
	OrderStatus    string
	// SpecialLabel carries a specialized channel subtype from the export
	// (e.g. a same-day or instant-delivery label) that should survive
	// attribution when no scanned record claims the shipment.
	SpecialLabel string
}

// ParsedImport is the output of parsing one uploaded tabular export.
type ParsedImport struct {
	// ChannelGuess is the parser's best guess at the sales channel,
	// derived from the export's column layout. Operator-confirmed
	// channel metadata on a scanned record takes precedence over it.
	ChannelGuess string
	Lines        []ImportLine
}

// PlatformParser converts an uploaded tabular export into normalized order
// lines. Implementations live in infrastructure and handle per-platform
// column layouts and encodings.
type PlatformParser interface {
	Parse(ctx context.Context, raw []byte) (*ParsedImport, error)
}
