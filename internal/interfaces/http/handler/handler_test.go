package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shiptrack/backend/internal/domain/catalog"
	"github.com/shiptrack/backend/internal/domain/ledger"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/shiptrack/backend/internal/domain/tracking"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// performJSON issues a JSON request against the router and returns the
// recorder. Extra headers come in pairs.
func performJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a response envelope.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

type memRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]tracking.Record
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{records: make(map[uuid.UUID]tracking.Record)}
}

func (m *memRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*tracking.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &r, nil
}

func (m *memRecordRepo) FindByTrackingNumber(_ context.Context, storeID uuid.UUID, tn string) (*tracking.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.StoreID == storeID && r.TrackingNumber == tn && !r.Deleted {
			rc := r
			return &rc, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRecordRepo) FindPending(_ context.Context, storeID uuid.UUID) ([]tracking.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tracking.Record
	for _, r := range m.records {
		if r.StoreID == storeID && !r.Deleted && r.ScannedAt != nil && r.CompletedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecordRepo) FindAllForStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) ([]tracking.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tracking.Record
	for _, r := range m.records {
		if r.StoreID == storeID && !r.Deleted {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memRecordRepo) Save(_ context.Context, record *tracking.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = *record
	return nil
}

func (m *memRecordRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

type memLineRepo struct {
	mu    sync.Mutex
	lines map[uuid.UUID]staging.Line
}

func newMemLineRepo() *memLineRepo {
	return &memLineRepo{lines: make(map[uuid.UUID]staging.Line)}
}

func (m *memLineRepo) FindByID(_ context.Context, id uuid.UUID) (*staging.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (m *memLineRepo) FindAllForStore(_ context.Context, storeID uuid.UUID) ([]staging.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []staging.Line
	for _, l := range m.lines {
		if l.StoreID == storeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLineRepo) Insert(_ context.Context, line *staging.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = *line
	return nil
}

func (m *memLineRepo) Update(_ context.Context, line *staging.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[line.ID]; !ok {
		return shared.ErrNotFound
	}
	m.lines[line.ID] = *line
	return nil
}

func (m *memLineRepo) UpdateFields(_ context.Context, id uuid.UUID, _ map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[id]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

func (m *memLineRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.lines, id)
	return nil
}

type memPartRepo struct {
	mu    sync.Mutex
	parts map[string]catalog.Part
}

func newMemPartRepo() *memPartRepo {
	return &memPartRepo{parts: make(map[string]catalog.Part)}
}

func (m *memPartRepo) put(id, name string, onHand int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[id] = catalog.Part{
		PartIdentifier: id,
		Name:           name,
		QuantityOnHand: decimal.NewFromInt(onHand),
	}
}

func (m *memPartRepo) Lookup(_ context.Context, _ uuid.UUID, id string) (*catalog.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m *memPartRepo) LookupMany(_ context.Context, _ uuid.UUID, ids []string) (catalog.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(catalog.Snapshot, len(ids))
	for _, id := range ids {
		if p, ok := m.parts[id]; ok {
			snap[id] = p
		}
	}
	return snap, nil
}

func (m *memPartRepo) DecrementStock(_ context.Context, _ uuid.UUID, id string, qty decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[id]
	if !ok {
		return shared.ErrNotFound
	}
	next := p.QuantityOnHand.Sub(qty)
	if next.IsNegative() {
		return shared.ErrInsufficientStock
	}
	p.QuantityOnHand = next
	m.parts[id] = p
	return nil
}

type memAliasRepo struct {
	mu      sync.Mutex
	aliases map[string]string
}

func newMemAliasRepo() *memAliasRepo {
	return &memAliasRepo{aliases: make(map[string]string)}
}

func (m *memAliasRepo) Find(_ context.Context, _ uuid.UUID, label string) (*catalog.LabelAlias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	part, ok := m.aliases[label]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &catalog.LabelAlias{SourceLabelName: label, PartIdentifier: part}, nil
}

func (m *memAliasRepo) FindMany(_ context.Context, _ uuid.UUID, labels []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for _, label := range labels {
		if part, ok := m.aliases[label]; ok {
			out[label] = part
		}
	}
	return out, nil
}

func (m *memAliasRepo) Save(_ context.Context, alias *catalog.LabelAlias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[alias.SourceLabelName] = alias.PartIdentifier
	return nil
}

type memLedgerRepo struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{}
}

func (m *memLedgerRepo) Append(_ context.Context, entry *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memLedgerRepo) ExistsForTrackingOrOrder(_ context.Context, storeID uuid.UUID, trackingNumbers, orderIDs []string) (ledger.MatchedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := ledger.MatchedSet{
		TrackingNumbers: make(map[string]struct{}),
		OrderIDs:        make(map[string]struct{}),
	}
	for _, e := range m.entries {
		if e.StoreID != storeID {
			continue
		}
		for _, tn := range trackingNumbers {
			if e.TrackingNumber == tn {
				matched.TrackingNumbers[tn] = struct{}{}
			}
		}
		for _, oid := range orderIDs {
			if e.OrderID == oid {
				matched.OrderIDs[oid] = struct{}{}
			}
		}
	}
	return matched, nil
}
