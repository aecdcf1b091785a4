package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidOrder) ||
		errors.Is(err, domain.ErrNegativePendingAmount) ||
		errors.Is(err, domain.ErrAmountOutOfRange) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
