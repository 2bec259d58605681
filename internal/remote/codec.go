package remote

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// encodeDecimal writes d as a JSON number.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

// decodeDecimal reads a JSON number, numeric string, or null (as zero).
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		if err := d.Null(); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "parse decimal")
		}
		return v, nil
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "parse decimal")
		}
		return v, nil
	}
}

// decodeString reads a string, mapping null to "".
func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		if err := d.Null(); err != nil {
			return "", err
		}
		return "", nil
	}
	return d.Str()
}

// decodeInt reads an integer, mapping null to 0.
func decodeInt(d *jx.Decoder) (int, error) {
	if d.Next() == jx.Null {
		if err := d.Null(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return d.Int()
}
