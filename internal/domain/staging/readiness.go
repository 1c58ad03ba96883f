package staging

import (
	"github.com/shiptrack/backend/internal/domain/catalog"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"github.com/shopspring/decimal"
)

// StageLookup maps a normalized tracking number to the checkpoint its
// record has reached. Missing keys mean the shipment was never scanned.
type StageLookup map[string]tracking.Stage

// DeriveReadiness recomputes the readiness status of every line in the
// working set, in order, against a request-lifetime catalog snapshot.
//
// Blockers are evaluated in strict priority: a shipment that was never
// scanned reports NotYetScanned even if its part is also out of stock.
// The aggregate cross-line stock pass runs afterwards over the whole set.
func DeriveReadiness(lines []*Line, stages StageLookup, snapshot catalog.Snapshot) {
	seen := make(map[duplicateKey]bool, len(lines))

	for _, line := range lines {
		line.Readiness = deriveLineReadiness(line, stages, snapshot, seen)
	}

	applyAggregatePass(lines, snapshot)
}

func deriveLineReadiness(line *Line, stages StageLookup, snapshot catalog.Snapshot, seen map[duplicateKey]bool) ReadinessStatus {
	key := line.dupKey()
	earlier := seen[key]
	seen[key] = true

	stage := stages[line.TrackingNumber]
	if stage < tracking.StageScanned {
		return ReadinessNotYetScanned
	}
	if stage < tracking.StageVerified {
		return ReadinessPendingVerification
	}
	if line.PartIdentifier == "" {
		return ReadinessNeedsPartIdentifier
	}
	if earlier && !line.OverrideDuplicate {
		return ReadinessDuplicateConflict
	}

	part, ok := snapshot[line.PartIdentifier]
	if !ok {
		return ReadinessCatalogMismatch
	}
	line.ResolveCatalog(part.Name, part.Brand, part.Application)

	if part.QuantityOnHand.LessThan(line.QuantityRequested) {
		return ReadinessInsufficientStock
	}
	return ReadinessReady
}

// applyAggregatePass demotes lines whose part is individually in stock but
// collectively over-committed: the summed requested quantity across the
// whole working set exceeds the quantity on hand. A per-line check cannot
// see this cross-order shortfall.
func applyAggregatePass(lines []*Line, snapshot catalog.Snapshot) {
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		if line.PartIdentifier == "" {
			continue
		}
		totals[line.PartIdentifier] = totals[line.PartIdentifier].Add(line.QuantityRequested)
	}

	for _, line := range lines {
		if line.Readiness != ReadinessReady && line.Readiness != ReadinessInsufficientStock {
			continue
		}
		part, ok := snapshot[line.PartIdentifier]
		if !ok {
			continue
		}
		if totals[line.PartIdentifier].GreaterThan(part.QuantityOnHand) {
			line.Readiness = ReadinessInsufficientAggregate
		}
	}
}
