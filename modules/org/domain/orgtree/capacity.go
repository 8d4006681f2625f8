package orgtree

import (
	"encoding/json"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// UnsetDisplay is what an unset capacity renders as.
const UnsetDisplay = "—"

// Capacity is an optional currency amount. The zero value is unset, which is
// not the same thing as a set amount of 0.
type Capacity struct {
	amount decimal.Decimal
	set    bool
}

func Unset() Capacity {
	return Capacity{}
}

func CapacityOf(amount decimal.Decimal) Capacity {
	return Capacity{amount: amount, set: true}
}

func CapacityFromInt(amount int64) Capacity {
	return CapacityOf(decimal.NewFromInt(amount))
}

func (c Capacity) IsSet() bool { return c.set }

// Amount returns the amount, or 0 when unset.
func (c Capacity) Amount() decimal.Decimal {
	if !c.set {
		return decimal.Zero
	}
	return c.amount
}

// Add sums two capacities treating unset as the additive identity.
func (c Capacity) Add(o Capacity) Capacity {
	switch {
	case !c.set:
		return o
	case !o.set:
		return c
	default:
		return CapacityOf(c.amount.Add(o.amount))
	}
}

func (c Capacity) Equal(o Capacity) bool {
	if c.set != o.set {
		return false
	}
	return !c.set || c.amount.Equal(o.amount)
}

func (c Capacity) IsNegative() bool {
	return c.set && c.amount.IsNegative()
}

// Display renders the capacity as money in the given ISO currency, or
// UnsetDisplay when no data is available.
func (c Capacity) Display(currency string) string {
	if !c.set {
		return UnsetDisplay
	}
	return FormatMoney(c.amount, currency)
}

func (c Capacity) String() string {
	if !c.set {
		return UnsetDisplay
	}
	return c.amount.String()
}

func (c Capacity) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.amount)
}

func (c *Capacity) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*c = Unset()
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*c = CapacityOf(d)
	return nil
}

// FormatMoney renders an amount in whole-currency units using go-money.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
