package utils

import (
	"math/big"
	"strings"
)

// ParseHexBigInt parses "0x..." or bare hex into an unsigned big integer.
func ParseHexBigInt(s string) (*big.Int, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if clean == "" {
		return nil, newFormatError("parse hex integer", s, "empty value")
	}
	v, ok := new(big.Int).SetString(clean, 16)
	if !ok {
		return nil, newFormatError("parse hex integer", s, "not a hex number")
	}
	if v.Sign() < 0 {
		return nil, newFormatError("parse hex integer", s, "negative value")
	}
	return v, nil
}

// FormatHexBigInt renders v as lowercase 0x-prefixed hex, the format swap legs arrive in.
func FormatHexBigInt(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return "0x" + v.Text(16)
}

// ParseDecimalBigInt parses a base-10 amount as stored in numeric columns.
func ParseDecimalBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, newFormatError("parse decimal integer", s, "not a decimal number")
	}
	return v, nil
}

// BigIntFromBytes interprets b as a big-endian unsigned integer.
func BigIntFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// DecimalFromBytes is BigIntFromBytes rendered base-10.
func DecimalFromBytes(b []byte) string {
	return BigIntFromBytes(b).String()
}

// DecimalString renders a possibly nil big integer base-10 ("0" for nil).
func DecimalString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// HexToDecimal converts a hex amount into its base-10 form.
func HexToDecimal(s string) (string, error) {
	v, err := ParseHexBigInt(s)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
