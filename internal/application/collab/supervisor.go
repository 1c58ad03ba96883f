package collab

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Supervisor starts the transport pump for a store the first time a
// session shows up and keeps it running until shutdown. Run exits only
// when its context is cancelled, so one goroutine per store suffices.
type Supervisor struct {
	svc    *GridService
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running map[uuid.UUID]struct{}
}

// NewSupervisor creates a supervisor bound to ctx. Cancelling ctx stops
// every store pump it started.
func NewSupervisor(ctx context.Context, svc *GridService, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Supervisor{
		svc:     svc,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[uuid.UUID]struct{}),
	}
}

// EnsureRunning idempotently starts the event pump for a store.
func (s *Supervisor) EnsureRunning(storeID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[storeID]; ok {
		return
	}
	s.running[storeID] = struct{}{}

	go func() {
		err := s.svc.Run(s.ctx, storeID)
		if err != nil && s.ctx.Err() == nil {
			s.logger.Error("grid pump stopped unexpectedly",
				zap.String("store_id", storeID.String()),
				zap.Error(err))
		}
		s.mu.Lock()
		delete(s.running, storeID)
		s.mu.Unlock()
	}()
}

// Stop cancels every running store pump.
func (s *Supervisor) Stop() {
	s.cancel()
}
