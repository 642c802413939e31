package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// CustomerUseCase validates contact details and ensures a backend customer
// record exists for them.
type CustomerUseCase struct {
	gateway adapter.CommerceGateway
}

func NewCustomerUseCase(gateway adapter.CommerceGateway) *CustomerUseCase {
	return &CustomerUseCase{gateway: gateway}
}

// ValidateEmail reports domain.ErrValidation for malformed addresses. The
// caller re-prompts instead of failing the session.
func (uc *CustomerUseCase) ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: malformed email", domain.ErrValidation)
	}
	return nil
}

// Ensure fetches the customer by email, creating it on first contact. The
// default name is the local part of the address.
func (uc *CustomerUseCase) Ensure(ctx context.Context, token, email string) (adapter.Customer, error) {
	email = strings.TrimSpace(email)
	customer, err := uc.gateway.CustomerByEmail(ctx, token, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return adapter.Customer{}, fmt.Errorf("lookup customer: %w", err)
	}

	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	customer, err = uc.gateway.CreateCustomer(ctx, token, email, name)
	if err != nil {
		return adapter.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}
