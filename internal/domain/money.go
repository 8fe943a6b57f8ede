package domain

import (
	"bytes"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money — сумма в минимальных денежных единицах (копейках).
type Money int64

const minorExp = -2

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// MoneyFromMajor переводит сумму в рублях в копейки.
func MoneyFromMajor(d decimal.Decimal) (Money, error) {
	minor := d.Shift(-minorExp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d.String())
	}
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return Money(minor.IntPart()), nil
}

// ParseMoney разбирает строку вида "350" или "120.50".
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return MoneyFromMajor(d)
}

// Decimal возвращает сумму в рублях.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), minorExp)
}

// Mul умножает цену на количество.
func (m Money) Mul(qty int) Money {
	return m * Money(qty)
}

// String всегда печатает два знака после точки.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON пишет сумму числом, а не строкой.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON принимает число или строку с числом.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("amount is empty")
	}
	parsed, err := ParseMoney(string(raw))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
