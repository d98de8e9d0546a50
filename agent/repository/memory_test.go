package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

func TestMemoryCustomersUpsertAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryCustomers()

	if _, err := repo.GetByPhone(ctx, "555-2222", "biz"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("GetByPhone() error = %v, want ErrNotFound", err)
	}

	first, err := repo.Upsert(ctx, contractx.Customer{BusinessID: "biz", Phone: " 555-2222 ", Name: "Returning Customer", Address: "1010 Cedar St"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := repo.Upsert(ctx, contractx.Customer{BusinessID: "biz", Phone: "555-2222", Name: "R. Customer"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("upsert created a second record: %s vs %s", first.ID, second.ID)
	}
	if second.Address != "1010 Cedar St" || second.Name != "R. Customer" {
		t.Fatalf("merged customer = %+v", second)
	}

	got, err := repo.GetByPhone(ctx, "555-2222", "biz")
	if err != nil || got.Name != "R. Customer" {
		t.Fatalf("GetByPhone() = %+v, %v", got, err)
	}
	if _, err := repo.GetByPhone(ctx, "555-2222", "other"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("lookup leaked across businesses: %v", err)
	}
}

func TestMemoryCustomersValidation(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryCustomers().Upsert(context.Background(), contractx.Customer{BusinessID: "biz"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Upsert() error = %v, want ErrValidation", err)
	}
}

func TestMemoryAppointments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryAppointments()
	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)

	a, err := repo.Create(ctx, contractx.Appointment{BusinessID: "biz", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Fatalf("Create() = %+v", a)
	}
	if _, err := repo.Create(ctx, contractx.Appointment{BusinessID: "biz", Start: start, End: start}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Create(zero length) error = %v", err)
	}
	if got := repo.ListByBusiness("biz"); len(got) != 1 {
		t.Fatalf("ListByBusiness() = %d items", len(got))
	}
}
