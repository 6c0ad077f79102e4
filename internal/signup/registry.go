package signup

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/pkg/errors"
)

// Registry keeps the signup flows of HTTP clients between requests. Flows idle
// for longer than the TTL are dropped.
type Registry struct {
	otp      OTPSender
	accounts AccountCreator
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewRegistry creates a flow registry
func NewRegistry(sender OTPSender, accounts AccountCreator, ttl time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		otp:      sender,
		accounts: accounts,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		flows:    make(map[string]*Flow),
	}
}

// Start opens a new flow at phone-input
func (r *Registry) Start() *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	flow := NewFlow(uuid.New().String(), r.otp, r.accounts, r.now, r.logger)
	r.flows[flow.ID()] = flow
	return flow
}

// Get returns a live flow
func (r *Registry) Get(id string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	flow, ok := r.flows[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "signup flow", ID: id}
	}
	return flow, nil
}

// Len reports how many flows are live
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.flows)
}

func (r *Registry) sweepLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, flow := range r.flows {
		if flow.idleSince().Before(cutoff) {
			delete(r.flows, id)
		}
	}
}
