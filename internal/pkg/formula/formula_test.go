package formula

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEvaluate_Arithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 / 4", "2.5"},
		{"-3 + 5", "2"},
		{"2 * -(3 + 1)", "-8"},
		{"0.1 + 0.2", "0.3"},
		{"100 - 20 - 30", "50"},
		{"64 / 4 / 2", "8"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := Evaluate(c.src, nil)
			require.NoError(t, err)
			assert.True(t, d(c.want).Equal(got), "got %s want %s", got, c.want)
		})
	}
}

func TestEvaluate_Variables(t *testing.T) {
	vars := map[string]decimal.Decimal{
		"BASIC": d("20000"),
		"CTC":   d("50000"),
		"HRA":   d("10000"),
	}

	got, err := Evaluate("(ctc - BASIC - HRA) * 0.5", vars)

	require.NoError(t, err)
	assert.True(t, d("10000").Equal(got))
}

func TestParse_Identifiers(t *testing.T) {
	expr, err := Parse("BASIC * 0.1 + hra + BASIC + SPECIAL_ALLOWANCE2")
	require.NoError(t, err)

	assert.Equal(t, []string{"BASIC", "HRA", "SPECIAL_ALLOWANCE2"}, expr.Identifiers())
}

func TestParse_RejectsOutsideGrammar(t *testing.T) {
	cases := map[string]error{
		"":                ErrEmptyFormula,
		"BASIC; rm -rf /": ErrUnexpectedSymbol,
		"Math.max(1,2)":   ErrSyntax,
		"BASIC ** 2":      ErrSyntax,
		"(1 + 2":          ErrSyntax,
		"1 + 2)":          ErrSyntax,
		"1..2":            ErrSyntax,
		"BASIC > 10":      ErrUnexpectedSymbol,
		"process.exit(1)": ErrSyntax,
		"alert`x`":        ErrUnexpectedSymbol,
	}
	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate("BASIC / 0", map[string]decimal.Decimal{"BASIC": d("1")})
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Evaluate("BASIC + HRA", map[string]decimal.Decimal{"BASIC": d("1")})
	assert.ErrorIs(t, err, ErrUnknownVariable)
}
