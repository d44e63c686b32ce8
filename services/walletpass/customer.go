package walletpass

import (
	"math"
	"strings"
	"time"

	"smallbiznis-stampcard/pkg/errutil"

	"github.com/spf13/cast"
)

// CustomerInput is the loose customer payload posted by the UI. Every field
// may be absent or of the wrong JSON type.
type CustomerInput struct {
	ID             any `json:"id"`
	Name           any `json:"name"`
	CashbackPoints any `json:"cashbackPoints"`
	Stamps         any `json:"stamps"`
	CreatedAt      any `json:"createdAt"`
}

type Customer struct {
	ID             string    `json:"customerId"`
	Name           string    `json:"name"`
	CashbackPoints int64     `json:"cashbackPoints"`
	Stamps         int       `json:"stamps"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
}

// Normalize coerces the input into safe values. Only a missing id is rejected.
func (in *CustomerInput) Normalize(defaultName string) (Customer, error) {
	if in == nil {
		return Customer{}, missingCustomerID(nil)
	}

	id := strings.TrimSpace(cast.ToString(in.ID))
	if id == "" {
		return Customer{}, missingCustomerID(in)
	}

	name := strings.TrimSpace(cast.ToString(in.Name))
	if name == "" {
		name = defaultName
	}

	c := Customer{
		ID:             id,
		Name:           name,
		CashbackPoints: count(in.CashbackPoints),
		Stamps:         int(count(in.Stamps)),
	}
	if t, err := cast.ToTimeE(in.CreatedAt); err == nil {
		c.CreatedAt = t.UTC()
	}
	return c, nil
}

// count is floor(v) for finite non-negative numbers, capped at MaxInt32, and 0
// for anything else.
func count(v any) int64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int64(math.Floor(f))
}

func missingCustomerID(received any) error {
	return errutil.ValidationFailed("customer id is required", nil,
		errutil.WithDetails(errutil.Detail{Field: "customerData.id", Message: "required"}),
		errutil.WithField("required", []string{"customerData.id"}),
		errutil.WithField("received", received),
	)
}
