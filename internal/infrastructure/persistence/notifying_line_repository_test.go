package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLineRepo is an in-memory LineRepository for decorator tests
type stubLineRepo struct {
	lines map[uuid.UUID]*staging.Line
}

func newStubLineRepo() *stubLineRepo {
	return &stubLineRepo{lines: make(map[uuid.UUID]*staging.Line)}
}

func (s *stubLineRepo) FindByID(_ context.Context, id uuid.UUID) (*staging.Line, error) {
	line, ok := s.lines[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *line
	return &copied, nil
}

func (s *stubLineRepo) FindAllForStore(_ context.Context, storeID uuid.UUID) ([]staging.Line, error) {
	var out []staging.Line
	for _, line := range s.lines {
		if line.StoreID == storeID {
			out = append(out, *line)
		}
	}
	return out, nil
}

func (s *stubLineRepo) Insert(_ context.Context, line *staging.Line) error {
	s.lines[line.ID] = line
	return nil
}

func (s *stubLineRepo) Update(_ context.Context, line *staging.Line) error {
	if _, ok := s.lines[line.ID]; !ok {
		return shared.ErrNotFound
	}
	s.lines[line.ID] = line
	return nil
}

func (s *stubLineRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	line, ok := s.lines[id]
	if !ok {
		return shared.ErrNotFound
	}
	if customer, ok := fields["customer"].(string); ok {
		line.Customer = customer
	}
	return nil
}

func (s *stubLineRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.lines[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.lines, id)
	return nil
}

// stubTransport records published grid events
type stubTransport struct {
	published []collab.GridEvent
	fail      bool
}

func (s *stubTransport) Publish(_ context.Context, event collab.GridEvent) error {
	if s.fail {
		return assert.AnError
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubTransport) Subscribe(ctx context.Context, _ uuid.UUID, _ func(collab.GridEvent)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubTransport) Close() error { return nil }

func newTestLine(t *testing.T, storeID uuid.UUID) *staging.Line {
	t.Helper()
	line, err := staging.NewLine(storeID, "SF100", "ORD-1")
	require.NoError(t, err)
	return line
}

func TestNotifyingRepositoryAnnouncesInsert(t *testing.T) {
	storeID := uuid.New()
	transport := &stubTransport{}
	repo := NewNotifyingLineRepository(newStubLineRepo(), transport, nil)

	line := newTestLine(t, storeID)
	require.NoError(t, repo.Insert(context.Background(), line))

	require.Len(t, transport.published, 1)
	event := transport.published[0]
	assert.Equal(t, collab.KindRowInserted, event.Kind)
	assert.Equal(t, storeID, event.StoreID)
	require.NotNil(t, event.Change)
	assert.Equal(t, line.ID, event.Change.RowID)
	require.NotNil(t, event.Change.NewRow)
	assert.Equal(t, "SF100", event.Change.NewRow.TrackingNumber)
}

func TestNotifyingRepositoryAnnouncesFullRowAfterPatch(t *testing.T) {
	storeID := uuid.New()
	inner := newStubLineRepo()
	transport := &stubTransport{}
	repo := NewNotifyingLineRepository(inner, transport, nil)

	line := newTestLine(t, storeID)
	require.NoError(t, repo.Insert(context.Background(), line))
	transport.published = nil

	err := repo.UpdateFields(context.Background(), line.ID, map[string]interface{}{
		"customer": "Zhang Wei",
	})
	require.NoError(t, err)

	require.Len(t, transport.published, 1)
	event := transport.published[0]
	assert.Equal(t, collab.KindRowUpdated, event.Kind)
	require.NotNil(t, event.Change.NewRow)
	// The announcement carries the stored row, not the patch
	assert.Equal(t, "Zhang Wei", event.Change.NewRow.Customer)
	assert.Equal(t, "SF100", event.Change.NewRow.TrackingNumber)
}

func TestNotifyingRepositoryAnnouncesDelete(t *testing.T) {
	storeID := uuid.New()
	inner := newStubLineRepo()
	transport := &stubTransport{}
	repo := NewNotifyingLineRepository(inner, transport, nil)

	line := newTestLine(t, storeID)
	require.NoError(t, repo.Insert(context.Background(), line))
	transport.published = nil

	require.NoError(t, repo.Delete(context.Background(), line.ID))

	require.Len(t, transport.published, 1)
	event := transport.published[0]
	assert.Equal(t, collab.KindRowDeleted, event.Kind)
	assert.Equal(t, line.ID, event.Change.RowID)
	assert.Nil(t, event.Change.NewRow)
	assert.Empty(t, inner.lines)
}

func TestNotifyingRepositorySwallowsPublishFailure(t *testing.T) {
	storeID := uuid.New()
	inner := newStubLineRepo()
	repo := NewNotifyingLineRepository(inner, &stubTransport{fail: true}, nil)

	line := newTestLine(t, storeID)
	// Write succeeds even when the announcement cannot be delivered
	require.NoError(t, repo.Insert(context.Background(), line))
	require.Len(t, inner.lines, 1)
}

func TestNotifyingRepositoryDoesNotAnnounceFailedWrites(t *testing.T) {
	transport := &stubTransport{}
	repo := NewNotifyingLineRepository(newStubLineRepo(), transport, nil)

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, transport.published)
}
