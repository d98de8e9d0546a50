package repository

import (
	"fmt"
	"strings"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

func validateCustomer(c contractx.Customer) error {
	if strings.TrimSpace(c.BusinessID) == "" {
		return fmt.Errorf("%w: customer business id is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("%w: customer phone is required", contractx.ErrValidation)
	}
	return nil
}

func validateAppointment(a contractx.Appointment) error {
	if strings.TrimSpace(a.BusinessID) == "" {
		return fmt.Errorf("%w: appointment business id is required", contractx.ErrValidation)
	}
	if a.Start.IsZero() || !a.End.After(a.Start) {
		return fmt.Errorf("%w: appointment needs a start before its end", contractx.ErrValidation)
	}
	return nil
}
