package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoney_StringAndJSON(t *testing.T) {
	m := Money(59000)
	require.Equal(t, "590.00", m.String())

	data, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: m})
	require.NoError(t, err)
	require.JSONEq(t, `{"total": 590.00}`, string(data))
}

func TestMoney_UnmarshalJSON(t *testing.T) {
	cases := map[string]Money{
		`350`:                  35000,
		`120.5`:                12050,
		`"80.00"`:              8000,
		`0`:                    0,
		`2500.99`:              250099,
		`92233720368547758.07`: 9223372036854775807,
	}
	for raw, want := range cases {
		var got Money
		require.NoError(t, json.Unmarshal([]byte(raw), &got), raw)
		require.Equal(t, want, got, raw)
	}

	for _, raw := range []string{`"abc"`, `1.234`, `null`, `""`, `1e30`, `-1e30`, `92233720368547758.08`} {
		var got Money
		require.Error(t, json.Unmarshal([]byte(raw), &got), raw)
	}
}

func TestMoney_Mul(t *testing.T) {
	require.Equal(t, Money(24000), Money(12000).Mul(2))
}
