package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	t.Run("Numeric", func(t *testing.T) {
		d, err := ParsePrice(" 1200.50 ")
		require.NoError(t, err)
		assert.Equal(t, "1200.5", d.String())
	})

	t.Run("Zero", func(t *testing.T) {
		d, err := ParsePrice("0")
		require.NoError(t, err)
		assert.True(t, d.IsZero())
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParsePrice("  ")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.Equal(t, MsgRequired, UserMessage(err, ""))
	})

	t.Run("NotANumber", func(t *testing.T) {
		for _, s := range []string{"abc", "NaN", "12a", "1,200"} {
			_, err := ParsePrice(s)
			assert.ErrorIs(t, err, ErrInvalidPrice, s)
			assert.Equal(t, MsgInvalidPrice, UserMessage(err, ""), s)
		}
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := ParsePrice("-1")
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestPriceFromFloat(t *testing.T) {
	d, err := PriceFromFloat(500)
	require.NoError(t, err)
	assert.Equal(t, "500", d.String())

	for _, f := range []float64{math.NaN(), math.Inf(1), -0.01} {
		_, err := PriceFromFloat(f)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	}
}

func TestPriceFromJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		err  bool
	}{
		{"Number", `1200.5`, "1200.5", false},
		{"Text", `"1200.50"`, "1200.5", false},
		{"Exponent", `1.5e2`, "150", false},
		{"Null", `null`, "", true},
		{"Word", `"abc"`, "", true},
		{"Negative", `-1`, "", true},
		{"Bool", `true`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := PriceFromJSON([]byte(tt.raw))
			if tt.err {
				require.ErrorIs(t, err, ErrInvalidPrice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}
