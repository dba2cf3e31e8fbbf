package codebook

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Code is a single value of a coded survey variable. Census codebooks mix
// integer codes with symbolic tokens ("N/A", "X"), so a Code is either
// numeric or symbolic. Numeric codes order before symbolic ones: numerics
// ascending by value, symbolics ascending lexically.
type Code struct {
	num      int64
	sym      string
	symbolic bool
}

// Numeric returns a numeric Code.
func Numeric(n int64) Code {
	return Code{num: n}
}

// Symbolic returns a symbolic Code carrying the original token.
func Symbolic(s string) Code {
	return Code{sym: s, symbolic: true}
}

// ParseCode interprets a codebook token: integer parse wins, anything else
// stays symbolic. "01" and "1" parse to the same numeric code.
func ParseCode(s string) Code {
	t := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(t, 10, 64); err == nil {
		return Numeric(n)
	}
	return Symbolic(t)
}

// CodeOf converts an observed fact value to a Code. Integral values become
// numeric codes; anything else (rare in survey extracts) keeps its decimal
// rendering as a symbolic code.
func CodeOf(v float64) Code {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<53 {
		return Numeric(int64(v))
	}
	return Symbolic(strconv.FormatFloat(v, 'f', -1, 64))
}

// IsNumeric reports whether the code is numeric.
func (c Code) IsNumeric() bool { return !c.symbolic }

// Int returns the numeric value and true for numeric codes.
func (c Code) Int() (int64, bool) {
	if c.symbolic {
		return 0, false
	}
	return c.num, true
}

// String renders the code as it appears in a dimension table.
func (c Code) String() string {
	if c.symbolic {
		return c.sym
	}
	return strconv.FormatInt(c.num, 10)
}

// Less reports whether c orders before other.
func (c Code) Less(other Code) bool {
	if c.symbolic != other.symbolic {
		return !c.symbolic
	}
	if c.symbolic {
		return c.sym < other.sym
	}
	return c.num < other.num
}

// SortCodes sorts codes in place by the total code order.
func SortCodes(codes []Code) {
	sort.Slice(codes, func(i, j int) bool { return codes[i].Less(codes[j]) })
}
