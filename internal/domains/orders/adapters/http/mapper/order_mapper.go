package mapper

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
)

// Validation messages returned to the order form.
const (
	MessageFieldsRequired = "All fields are required!"
	MessageInvalidNumbers = "Invalid numeric values!"
	MessageInvalidDate    = "Invalid order date format!"
)

// TimestampLayout renders instants as ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	minQuantity = decimal.NewFromInt(math.MinInt32)
	maxQuantity = decimal.NewFromInt(math.MaxInt32)
)

var orderDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Numeric accepts either a JSON number or a numeric string, as HTML forms post both.
type Numeric struct {
	raw string
	set bool
}

// NewNumeric builds a Numeric from its textual form.
func NewNumeric(raw string) Numeric {
	return Numeric{raw: raw, set: true}
}

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Numeric{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric{raw: strings.TrimSpace(s), set: true}
		return nil
	}
	*n = Numeric{raw: string(data), set: true}
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	if _, err := decimal.NewFromString(n.raw); err == nil {
		return []byte(n.raw), nil
	}
	return json.Marshal(n.raw)
}

// Present reports whether the field was supplied with a non-empty value.
func (n Numeric) Present() bool {
	return n.set && n.raw != ""
}

// Decimal parses the value.
func (n Numeric) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(n.raw)
}

// CreateOrder is the body accepted by POST /add-order.
type CreateOrder struct {
	CustomerName   string  `json:"customerName"`
	Address        string  `json:"address"`
	OrderDate      string  `json:"orderDate"`
	Quantity       Numeric `json:"quantity"`
	FlavorSize     string  `json:"flavorSize"`
	CostPerPiece   Numeric `json:"costPerPiece"`
	AdvancePayment Numeric `json:"advancePayment"`
}

// ToDraft converts the form body into a domain draft. Checks run in the
// order the form reports them: presence, numbers, then the date.
func ToDraft(in CreateOrder) (ordersdomain.Draft, error) {
	missing := map[string]string{}
	requireText := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing[name] = "is required"
		}
	}
	requireText("customerName", in.CustomerName)
	requireText("address", in.Address)
	requireText("orderDate", in.OrderDate)
	requireText("flavorSize", in.FlavorSize)
	if !in.Quantity.Present() {
		missing["quantity"] = "is required"
	}
	if !in.CostPerPiece.Present() {
		missing["costPerPiece"] = "is required"
	}
	if !in.AdvancePayment.Present() {
		missing["advancePayment"] = "is required"
	}
	if len(missing) > 0 {
		return ordersdomain.Draft{}, &ordersdomain.ValidationError{Message: MessageFieldsRequired, Fields: missing}
	}

	invalid := map[string]string{}
	quantity, ok := parseQuantity(in.Quantity)
	if !ok {
		invalid["quantity"] = "must be a whole number"
	}
	cost, ok := parseAmount(in.CostPerPiece)
	if !ok {
		invalid["costPerPiece"] = "must be a number"
	}
	advance, ok := parseAmount(in.AdvancePayment)
	if !ok {
		invalid["advancePayment"] = "must be a number"
	}
	if len(invalid) == 0 && !ordersdomain.InAmountRange(decimal.NewFromInt(int64(quantity)).Mul(cost)) {
		invalid["costPerPiece"] = "makes the total too large"
	}
	if len(invalid) > 0 {
		return ordersdomain.Draft{}, &ordersdomain.ValidationError{Message: MessageInvalidNumbers, Fields: invalid}
	}

	orderDate, ok := ParseOrderDate(in.OrderDate)
	if !ok {
		return ordersdomain.Draft{}, &ordersdomain.ValidationError{
			Message: MessageInvalidDate,
			Fields:  map[string]string{"orderDate": "must be an ISO-8601 date"},
		}
	}

	return ordersdomain.Draft{
		CustomerName:   in.CustomerName,
		Address:        in.Address,
		OrderDate:      orderDate,
		Quantity:       quantity,
		FlavorSize:     in.FlavorSize,
		CostPerPiece:   cost,
		AdvancePayment: advance,
	}, nil
}

// parseQuantity accepts whole numbers that fit an int32.
func parseQuantity(n Numeric) (int, bool) {
	d, err := n.Decimal()
	if err != nil || !ordersdomain.InAmountRange(d) || !d.IsInteger() {
		return 0, false
	}
	if d.LessThan(minQuantity) || d.GreaterThan(maxQuantity) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// parseAmount accepts numbers a money column can hold.
func parseAmount(n Numeric) (decimal.Decimal, bool) {
	d, err := n.Decimal()
	if err != nil || !ordersdomain.InAmountRange(d) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseOrderDate accepts full timestamps as well as the bare dates a date picker sends.
func ParseOrderDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Order is the JSON shape of a stored order.
type Order struct {
	ID             string  `json:"id"`
	CustomerName   string  `json:"customerName"`
	Address        string  `json:"address"`
	OrderDate      string  `json:"orderDate"`
	Quantity       int     `json:"quantity"`
	FlavorSize     string  `json:"flavorSize"`
	CostPerPiece   float64 `json:"costPerPiece"`
	AdvancePayment float64 `json:"advancePayment"`
	TotalPayment   float64 `json:"totalPayment"`
	PendingAmount  float64 `json:"pendingAmount"`
	IsDelivered    bool    `json:"isDelivered"`
	CreatedAt      string  `json:"createdAt"`
}

// CreatedOrder is returned by POST /add-order.
type CreatedOrder struct {
	ID            string  `json:"id"`
	Message       string  `json:"message"`
	TotalPayment  float64 `json:"totalPayment"`
	PendingAmount float64 `json:"pendingAmount"`
}

// FromDomain converts a domain order to its JSON view.
func FromDomain(order *ordersdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	return Order{
		ID:             order.ID,
		CustomerName:   order.CustomerName,
		Address:        order.Address,
		OrderDate:      FormatTimestamp(order.OrderDate),
		Quantity:       order.Quantity,
		FlavorSize:     order.FlavorSize,
		CostPerPiece:   Money(order.CostPerPiece),
		AdvancePayment: Money(order.AdvancePayment),
		TotalPayment:   Money(order.TotalPayment),
		PendingAmount:  Money(order.PendingAmount),
		IsDelivered:    order.IsDelivered,
		CreatedAt:      FormatTimestamp(order.CreatedAt),
	}
}

// FromDomainList converts a slice, never returning nil.
func FromDomainList(orders []*ordersdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromDomain(o))
	}
	return out
}

// FromCreated builds the creation acknowledgement.
func FromCreated(order *ordersdomain.Order, message string) CreatedOrder {
	return CreatedOrder{
		ID:            order.ID,
		Message:       message,
		TotalPayment:  Money(order.TotalPayment),
		PendingAmount: Money(order.PendingAmount),
	}
}

// ToDomain converts the JSON view back into a domain order. Used by clients
// that mirror orders locally.
func ToDomain(view Order) (*ordersdomain.Order, error) {
	order := &ordersdomain.Order{
		ID:             view.ID,
		CustomerName:   view.CustomerName,
		Address:        view.Address,
		Quantity:       view.Quantity,
		FlavorSize:     view.FlavorSize,
		CostPerPiece:   decimal.NewFromFloat(view.CostPerPiece).Round(ordersdomain.CurrencyPlaces),
		AdvancePayment: decimal.NewFromFloat(view.AdvancePayment).Round(ordersdomain.CurrencyPlaces),
		TotalPayment:   decimal.NewFromFloat(view.TotalPayment).Round(ordersdomain.CurrencyPlaces),
		PendingAmount:  decimal.NewFromFloat(view.PendingAmount).Round(ordersdomain.CurrencyPlaces),
		IsDelivered:    view.IsDelivered,
	}
	if view.OrderDate != "" {
		t, ok := ParseOrderDate(view.OrderDate)
		if !ok {
			return nil, &ordersdomain.ValidationError{Message: MessageInvalidDate, Fields: map[string]string{"orderDate": view.OrderDate}}
		}
		order.OrderDate = t
	}
	if view.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, view.CreatedAt)
		if err != nil {
			return nil, err
		}
		order.CreatedAt = t.UTC()
	}
	return order, nil
}

// Money renders a decimal at currency precision as a JSON number.
func Money(d decimal.Decimal) float64 {
	return d.Round(ordersdomain.CurrencyPlaces).InexactFloat64()
}

// FormatTimestamp renders t in UTC with millisecond precision; zero stays empty.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}
