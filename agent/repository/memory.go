package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// MemoryCustomers is a process-local customer repository keyed by business and phone.
type MemoryCustomers struct {
	mu   sync.RWMutex
	byID map[string]contractx.Customer
	keys map[string]string
	now  func() time.Time
}

func NewMemoryCustomers() *MemoryCustomers {
	return &MemoryCustomers{
		byID: make(map[string]contractx.Customer),
		keys: make(map[string]string),
		now:  time.Now,
	}
}

func (r *MemoryCustomers) GetByPhone(ctx context.Context, phone, businessID string) (*contractx.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keys[customerKey(businessID, phone)]
	if !ok {
		return nil, contractx.ErrNotFound
	}
	c := r.byID[id]
	return &c, nil
}

// Upsert matches on business and phone. Empty incoming fields keep the stored values.
func (r *MemoryCustomers) Upsert(ctx context.Context, c contractx.Customer) (*contractx.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	c.Phone = strings.TrimSpace(c.Phone)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := customerKey(c.BusinessID, c.Phone)
	if id, ok := r.keys[key]; ok {
		merged := mergeCustomer(r.byID[id], c)
		r.byID[id] = merged
		return &merged, nil
	}

	c.ID = uuid.NewString()
	c.CreatedAt = r.now().UTC()
	r.byID[c.ID] = c
	r.keys[key] = c.ID
	return &c, nil
}

// MemoryAppointments keeps appointments in insertion order.
type MemoryAppointments struct {
	mu    sync.RWMutex
	items []contractx.Appointment
	now   func() time.Time
}

func NewMemoryAppointments() *MemoryAppointments {
	return &MemoryAppointments{now: time.Now}
}

func (r *MemoryAppointments) Create(ctx context.Context, a contractx.Appointment) (*contractx.Appointment, error) {
	if err := validateAppointment(a); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = uuid.NewString()
	a.CreatedAt = r.now().UTC()
	r.items = append(r.items, a)
	return &a, nil
}

// ListByBusiness returns a copy of the business's appointments.
func (r *MemoryAppointments) ListByBusiness(businessID string) []contractx.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contractx.Appointment
	for _, a := range r.items {
		if a.BusinessID == businessID {
			out = append(out, a)
		}
	}
	return out
}

func customerKey(businessID, phone string) string {
	return strings.TrimSpace(businessID) + "|" + strings.TrimSpace(phone)
}

func mergeCustomer(existing, incoming contractx.Customer) contractx.Customer {
	if v := strings.TrimSpace(incoming.Name); v != "" {
		existing.Name = v
	}
	if v := strings.TrimSpace(incoming.Email); v != "" {
		existing.Email = v
	}
	if v := strings.TrimSpace(incoming.Address); v != "" {
		existing.Address = v
	}
	return existing
}
