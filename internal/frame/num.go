package frame

import (
	"math"
	"strconv"
	"strings"
)

// Num is a nullable float64 cell value.
type Num struct {
	V     float64
	Valid bool
}

// Of returns a valid Num. NaN is treated as null.
func Of(v float64) Num {
	if math.IsNaN(v) {
		return Num{}
	}
	return Num{V: v, Valid: true}
}

// Null returns the null Num.
func Null() Num {
	return Num{}
}

// OrZero returns the value, or 0 when null.
func (n Num) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.V
}

// String renders the value without trailing zeros; null renders as "".
func (n Num) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.V, 'f', -1, 64)
}

// ParseNum parses a cell string. Empty strings are null; ok is false when
// the string is non-empty and not a number.
func ParseNum(s string) (n Num, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return Null(), false
	}
	return Of(v), true
}

// Div returns a/b. The result is null when either operand is null or b is zero.
func Div(a, b Num) Num {
	if !a.Valid || !b.Valid || b.V == 0 {
		return Null()
	}
	return Of(a.V / b.V)
}

// Mul returns a*b, null if either operand is null.
func Mul(a, b Num) Num {
	if !a.Valid || !b.Valid {
		return Null()
	}
	return Of(a.V * b.V)
}

// Add returns a+b, null if either operand is null.
func Add(a, b Num) Num {
	if !a.Valid || !b.Valid {
		return Null()
	}
	return Of(a.V + b.V)
}

// Sum adds the valid values and skips nulls. An all-null input sums to 0.
func Sum(vals []Num) Num {
	var total float64
	for _, v := range vals {
		if v.Valid {
			total += v.V
		}
	}
	return Of(total)
}

// Sub returns a-b, null if either operand is null.
func Sub(a, b Num) Num {
	if !a.Valid || !b.Valid {
		return Null()
	}
	return Of(a.V - b.V)
}
