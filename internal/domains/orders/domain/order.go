package domain

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the precision used for every money value.
const CurrencyPlaces = 2

// Money columns are numeric(12,2): at most MaxAmountDigits digits before the
// point. Inputs with more than maxInputScale fractional digits are refused
// before rounding.
const (
	MaxAmountDigits = 10
	maxInputScale   = 20
)

var (
	// ErrInvalidOrder is the root of every validation failure raised by the aggregate.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrNegativePendingAmount is returned when a pending amount edit goes below zero.
	ErrNegativePendingAmount = errors.New("pending amount must not be negative")
	// ErrAmountOutOfRange is returned for amounts a money column cannot hold.
	ErrAmountOutOfRange = errors.New("amount is out of range")
)

// InAmountRange reports whether d, rounded to CurrencyPlaces, fits a money
// column. The exponent is checked before any arithmetic so values like 1e2000000000
// are refused without expanding them.
func InAmountRange(d decimal.Decimal) bool {
	if !digitsFit(d) {
		return false
	}
	return digitsFit(d.Round(CurrencyPlaces))
}

func digitsFit(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxInputScale {
		return false
	}
	return int64(d.NumDigits())+exp <= MaxAmountDigits
}

// ValidationError reports user-fixable problems with order input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrInvalidOrder.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrInvalidOrder.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOrder }

// Policy carries the optional validation rules.
type Policy struct {
	// RejectAdvanceOverTotal refuses drafts whose advance exceeds the total payment.
	RejectAdvanceOverTotal bool
}

// Draft is the typed, fully-populated input for creating an order.
type Draft struct {
	CustomerName   string
	Address        string
	OrderDate      time.Time
	Quantity       int
	FlavorSize     string
	CostPerPiece   decimal.Decimal
	AdvancePayment decimal.Decimal
}

// TotalPayment returns quantity * costPerPiece at currency precision.
func (d Draft) TotalPayment() decimal.Decimal {
	return decimal.NewFromInt(int64(d.Quantity)).Mul(d.CostPerPiece).Round(CurrencyPlaces)
}

// Validate enforces the creation invariants.
func (d Draft) Validate(policy Policy) error {
	fields := map[string]string{}
	if strings.TrimSpace(d.CustomerName) == "" {
		fields["customerName"] = "is required"
	}
	if strings.TrimSpace(d.Address) == "" {
		fields["address"] = "is required"
	}
	if strings.TrimSpace(d.FlavorSize) == "" {
		fields["flavorSize"] = "is required"
	}
	if d.OrderDate.IsZero() {
		fields["orderDate"] = "is required"
	}
	if d.Quantity <= 0 {
		fields["quantity"] = "must be a positive whole number"
	} else if d.Quantity > math.MaxInt32 {
		fields["quantity"] = "is out of range"
	}
	if d.CostPerPiece.IsNegative() {
		fields["costPerPiece"] = "must not be negative"
	} else if !InAmountRange(d.CostPerPiece) {
		fields["costPerPiece"] = "is out of range"
	}
	if d.AdvancePayment.IsNegative() {
		fields["advancePayment"] = "must not be negative"
	} else if !InAmountRange(d.AdvancePayment) {
		fields["advancePayment"] = "is out of range"
	}
	if len(fields) == 0 && !InAmountRange(d.TotalPayment()) {
		fields["totalPayment"] = "is out of range"
	}
	if policy.RejectAdvanceOverTotal && len(fields) == 0 && d.AdvancePayment.GreaterThan(d.TotalPayment()) {
		fields["advancePayment"] = "must not exceed the total payment"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Order is a customer purchase with its payment and delivery state.
type Order struct {
	ID             string
	CustomerName   string
	Address        string
	OrderDate      time.Time
	Quantity       int
	FlavorSize     string
	CostPerPiece   decimal.Decimal
	AdvancePayment decimal.Decimal
	TotalPayment   decimal.Decimal
	PendingAmount  decimal.Decimal
	IsDelivered    bool
	CreatedAt      time.Time
}

// NewOrder validates the draft and derives the totals. TotalPayment and
// CreatedAt are fixed here and never touched again.
func NewOrder(id string, draft Draft, createdAt time.Time, policy Policy) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	if err := draft.Validate(policy); err != nil {
		return nil, err
	}
	total := draft.TotalPayment()
	advance := draft.AdvancePayment.Round(CurrencyPlaces)
	return &Order{
		ID:             id,
		CustomerName:   strings.TrimSpace(draft.CustomerName),
		Address:        strings.TrimSpace(draft.Address),
		OrderDate:      draft.OrderDate.UTC(),
		Quantity:       draft.Quantity,
		FlavorSize:     strings.TrimSpace(draft.FlavorSize),
		CostPerPiece:   draft.CostPerPiece.Round(CurrencyPlaces),
		AdvancePayment: advance,
		TotalPayment:   total,
		PendingAmount:  total.Sub(advance),
		CreatedAt:      createdAt.UTC(),
	}, nil
}

// MarkDelivered flips the delivered flag. Calling it twice is harmless.
func (o *Order) MarkDelivered() {
	o.IsDelivered = true
}

// SetPendingAmount overwrites the unpaid balance without re-deriving it from the totals.
func (o *Order) SetPendingAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativePendingAmount
	}
	if !InAmountRange(amount) {
		return ErrAmountOutOfRange
	}
	o.PendingAmount = amount.Round(CurrencyPlaces)
	return nil
}

// IsPending reports whether the order still has an unpaid balance.
func (o *Order) IsPending() bool {
	return o.PendingAmount.IsPositive()
}

// SortNewestFirst orders by CreatedAt descending, keeping the existing order for ties.
func SortNewestFirst(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
