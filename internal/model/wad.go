package model

import (
	"math/big"
	"strings"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// WadScale is the number of fractional digits carried by protocol quantities.
const WadScale = 18

// Precision is the protocol fixed-point scale. Every quantity, USD value and
// health factor is an integer scaled by 1e18.
var Precision = big.NewInt(1_000_000_000_000_000_000)

// MaxHealthFactor is the sentinel for an account with no debt. Any comparison
// treats it as unbounded solvency.
var MaxHealthFactor = new(big.Int).Lsh(big.NewInt(1), 255)

// Wad converts whole units into the protocol scale.
func Wad(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), Precision)
}

// Clone returns a defensive copy. Nil is treated as zero.
func Clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// ParseWad converts a decimal string such as "2000" or "1.5" into the
// protocol scale. More than 18 fractional digits is an error, never a silent
// truncation.
func ParseWad(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrap(exception.ErrConfigInvalidAmount, "empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, errors.Wrap(exception.ErrConfigInvalidAmount, s)
	}
	if len(fracPart) > WadScale {
		return nil, errors.Wrap(exception.ErrConfigInvalidAmount, "more than 18 fractional digits: "+s)
	}

	digits := intPart + fracPart + strings.Repeat("0", WadScale-len(fracPart))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, errors.Wrap(exception.ErrConfigInvalidAmount, s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// FormatWad renders a protocol-scale quantity as a decimal string with the
// trailing zeros trimmed.
func FormatWad(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return string(AppendWad(nil, v))
}

// AppendWad appends the decimal rendering of a protocol-scale quantity.
func AppendWad(buf []byte, v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return append(buf, '0')
	}

	digits := new(big.Int).Abs(v).String()
	if v.Sign() < 0 {
		buf = append(buf, '-')
	}

	if len(digits) <= WadScale {
		buf = append(buf, '0')
		frac := strings.Repeat("0", WadScale-len(digits)) + digits
		frac = strings.TrimRight(frac, "0")
		if frac != "" {
			buf = append(buf, '.')
			buf = append(buf, frac...)
		}
		return buf
	}

	idx := len(digits) - WadScale
	buf = append(buf, digits[:idx]...)
	frac := strings.TrimRight(digits[idx:], "0")
	if frac != "" {
		buf = append(buf, '.')
		buf = append(buf, frac...)
	}
	return buf
}
