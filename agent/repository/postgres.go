package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID         string    `bun:"id,pk"`
	BusinessID string    `bun:"business_id,notnull"`
	Name       string    `bun:"name"`
	Phone      string    `bun:"phone,notnull"`
	Email      string    `bun:"email"`
	Address    string    `bun:"address"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type appointmentRow struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID              string    `bun:"id,pk"`
	BusinessID      string    `bun:"business_id,notnull"`
	CustomerID      string    `bun:"customer_id"`
	SessionID       string    `bun:"session_id"`
	StartAt         time.Time `bun:"start_at,notnull"`
	EndAt           time.Time `bun:"end_at,notnull"`
	ServiceType     string    `bun:"service_type"`
	Description     string    `bun:"description"`
	IsEmergency     bool      `bun:"is_emergency,notnull"`
	LeadSource      string    `bun:"lead_source"`
	EstimatedLow    *float64  `bun:"estimated_low"`
	EstimatedHigh   *float64  `bun:"estimated_high"`
	CalendarEventID string    `bun:"calendar_event_id"`
	Status          string    `bun:"status,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type businessRow struct {
	bun.BaseModel `bun:"table:businesses,alias:b"`

	ID                    string  `bun:"id,pk"`
	Name                  string  `bun:"name"`
	CalendarID            string  `bun:"calendar_id"`
	Timezone              string  `bun:"timezone"`
	EmergencyKeywords     string  `bun:"emergency_keywords"`
	ServiceDurationConfig string  `bun:"service_duration_config"`
	TravelBufferMinutes   int     `bun:"travel_buffer_minutes"`
	ReserveMornings       bool    `bun:"reserve_mornings_for_emergencies"`
	IntentThreshold       float64 `bun:"intent_threshold"`
	OpenHour              int     `bun:"open_hour"`
	CloseHour             int     `bun:"close_hour"`
}

// Migrate creates the tables and indexes used by the Postgres repositories.
func Migrate(ctx context.Context, db bun.IDB) error {
	models := []any{(*customerRow)(nil), (*appointmentRow)(nil), (*businessRow)(nil)}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if _, err := db.NewCreateIndex().
		Model((*customerRow)(nil)).
		Index("customers_business_phone_idx").
		Column("business_id", "phone").
		Unique().
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create customer index: %w", err)
	}
	return nil
}

type PostgresCustomers struct {
	db bun.IDB
}

func NewPostgresCustomers(db bun.IDB) *PostgresCustomers {
	return &PostgresCustomers{db: db}
}

func (r *PostgresCustomers) GetByPhone(ctx context.Context, phone, businessID string) (*contractx.Customer, error) {
	var row customerRow
	err := r.db.NewSelect().
		Model(&row).
		Where("c.business_id = ?", strings.TrimSpace(businessID)).
		Where("c.phone = ?", strings.TrimSpace(phone)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contractx.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}
	c := row.toContract()
	return &c, nil
}

func (r *PostgresCustomers) Upsert(ctx context.Context, c contractx.Customer) (*contractx.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	row := customerRow{
		ID:         uuid.NewString(),
		BusinessID: strings.TrimSpace(c.BusinessID),
		Name:       strings.TrimSpace(c.Name),
		Phone:      strings.TrimSpace(c.Phone),
		Email:      strings.TrimSpace(c.Email),
		Address:    strings.TrimSpace(c.Address),
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (business_id, phone) DO UPDATE").
		Set("name = COALESCE(NULLIF(EXCLUDED.name, ''), c.name)").
		Set("email = COALESCE(NULLIF(EXCLUDED.email, ''), c.email)").
		Set("address = COALESCE(NULLIF(EXCLUDED.address, ''), c.address)").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	out := row.toContract()
	return &out, nil
}

type PostgresAppointments struct {
	db bun.IDB
}

func NewPostgresAppointments(db bun.IDB) *PostgresAppointments {
	return &PostgresAppointments{db: db}
}

func (r *PostgresAppointments) Create(ctx context.Context, a contractx.Appointment) (*contractx.Appointment, error) {
	if err := validateAppointment(a); err != nil {
		return nil, err
	}
	row := appointmentRow{
		ID:              uuid.NewString(),
		BusinessID:      a.BusinessID,
		CustomerID:      a.CustomerID,
		SessionID:       a.SessionID,
		StartAt:         a.Start.UTC(),
		EndAt:           a.End.UTC(),
		ServiceType:     a.ServiceType,
		Description:     a.Description,
		IsEmergency:     a.IsEmergency,
		LeadSource:      a.LeadSource,
		EstimatedLow:    a.EstimatedLow,
		EstimatedHigh:   a.EstimatedHigh,
		CalendarEventID: a.CalendarEventID,
		Status:          a.Status,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	return &a, nil
}

// PostgresTenants reads tenant configuration from the businesses table.
type PostgresTenants struct {
	db bun.IDB
}

func NewPostgresTenants(db bun.IDB) *PostgresTenants {
	return &PostgresTenants{db: db}
}

func (r *PostgresTenants) Tenant(ctx context.Context, businessID string) (contractx.Tenant, error) {
	var row businessRow
	err := r.db.NewSelect().
		Model(&row).
		Where("b.id = ?", strings.TrimSpace(businessID)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.Tenant{}, fmt.Errorf("%w: %s", contractx.ErrUnknownTenant, businessID)
	}
	if err != nil {
		return contractx.Tenant{}, fmt.Errorf("select business: %w", err)
	}
	return contractx.Tenant{
		ID:                    row.ID,
		Name:                  row.Name,
		CalendarID:            row.CalendarID,
		Timezone:              row.Timezone,
		EmergencyKeywords:     row.EmergencyKeywords,
		ServiceDurationConfig: row.ServiceDurationConfig,
		TravelBufferMinutes:   row.TravelBufferMinutes,
		ReserveMornings:       row.ReserveMornings,
		IntentThreshold:       row.IntentThreshold,
		OpenHour:              row.OpenHour,
		CloseHour:             row.CloseHour,
	}, nil
}

func (r customerRow) toContract() contractx.Customer {
	return contractx.Customer{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		Address:    r.Address,
		CreatedAt:  r.CreatedAt,
	}
}
