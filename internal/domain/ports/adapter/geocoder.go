package adapter

import (
	"context"

	"telegram-pizza-shop/internal/domain/model"
)

// Geocoder resolves a free-text address into coordinates. Absence of any
// match is a normal outcome and is reported as domain.ErrNotFound, never as a
// transport failure.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Point, error)
}
