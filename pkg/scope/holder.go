package scope

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// Kind tells request holders from background holders.
type Kind string

const (
	KindRequest    Kind = "request"
	KindBackground Kind = "background"
)

// Holder carries the tenant of one unit of work. A holder is written once and
// read many times; it is never shared between units of work.
type Holder struct {
	kind Kind

	mu   sync.RWMutex
	info tenant.Info
	set  bool

	// onSet lets the owning scope veto the write (disposed) and advance its state.
	onSet func(tenant.Info) error
}

// NewRequestHolder returns an empty holder for an inbound request.
func NewRequestHolder() *Holder {
	return &Holder{kind: KindRequest}
}

// NewBackgroundHolder returns an empty holder for a job execution.
// Orchestration code fills it with SetTenantInfo.
func NewBackgroundHolder() *Holder {
	return &Holder{kind: KindBackground}
}

func (h *Holder) Kind() Kind {
	return h.kind
}

// Set stores info. Setting the same tenant again is a no-op; setting a
// different one fails with ErrTenantConflict and leaves the holder unchanged.
func (h *Holder) Set(info tenant.Info) error {
	if info.IsZero() {
		return ErrEmptyTenant
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.set {
		if sameTenant(h.info, info) {
			return nil
		}
		return fmt.Errorf("%w: holds %s, got %s", ErrTenantConflict, h.info.ID, info.ID)
	}

	if h.onSet != nil {
		if err := h.onSet(info); err != nil {
			return err
		}
	}

	h.info = info.Clone()
	h.set = true
	return nil
}

// SetTenantInfo is the orchestration-side form of Set.
func (h *Holder) SetTenantInfo(id uuid.UUID, name, connectionString string) error {
	return h.Set(tenant.Info{
		ID:               id,
		Name:             name,
		ConnectionString: connectionString,
		IsActive:         true,
	})
}

// Current returns the tenant, if set.
func (h *Holder) Current() (tenant.Info, bool) {
	if h == nil {
		return tenant.Info{}, false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.set {
		return tenant.Info{}, false
	}
	return h.info.Clone(), true
}

// Require returns the tenant or ErrTenantContextMissing.
func (h *Holder) Require() (tenant.Info, error) {
	info, ok := h.Current()
	if !ok {
		return tenant.Info{}, ErrTenantContextMissing
	}
	return info, nil
}

// IsSet reports whether the holder carries a tenant.
func (h *Holder) IsSet() bool {
	if h == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.set
}

func sameTenant(a, b tenant.Info) bool {
	return a.ID == b.ID && a.ConnectionString == b.ConnectionString
}
