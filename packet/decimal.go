package packet

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	decimalSize     = 16
	decimalMaxScale = 28
	decimalSignBit  = 1 << 31
)

var tenInt = big.NewInt(10)

// decodeDecimal reads the layout [lo][mid][hi][flags], four little-endian
// 32-bit words. The coefficient is hi:mid:lo, flags carries the scale in
// bits 16-23 and the sign in bit 31.
func decodeDecimal(b []byte) decimal.Decimal {
	lo := binary.LittleEndian.Uint32(b[0:4])
	mid := binary.LittleEndian.Uint32(b[4:8])
	hi := binary.LittleEndian.Uint32(b[8:12])
	flags := binary.LittleEndian.Uint32(b[12:16])

	var raw [12]byte
	binary.BigEndian.PutUint32(raw[0:4], hi)
	binary.BigEndian.PutUint32(raw[4:8], mid)
	binary.BigEndian.PutUint32(raw[8:12], lo)
	coef := new(big.Int).SetBytes(raw[:])
	if flags&decimalSignBit != 0 {
		coef.Neg(coef)
	}
	scale := int32((flags >> 16) & 0xFF)
	return decimal.NewFromBigInt(coef, -scale)
}

func encodeDecimal(d decimal.Decimal) ([decimalSize]byte, error) {
	var out [decimalSize]byte

	if d.Exponent() < -decimalMaxScale {
		d = d.Round(decimalMaxScale)
	}
	coef := d.Coefficient()
	exp := d.Exponent()
	if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(tenInt, big.NewInt(int64(exp)), nil))
		exp = 0
	}

	neg := coef.Sign() < 0
	coef.Abs(coef)
	if coef.BitLen() > 96 {
		return out, fmt.Errorf("%w: %s", ErrDecimalOverflow, d.String())
	}

	var raw [12]byte
	coef.FillBytes(raw[:])
	binary.LittleEndian.PutUint32(out[0:4], binary.BigEndian.Uint32(raw[8:12]))
	binary.LittleEndian.PutUint32(out[4:8], binary.BigEndian.Uint32(raw[4:8]))
	binary.LittleEndian.PutUint32(out[8:12], binary.BigEndian.Uint32(raw[0:4]))

	flags := uint32(-exp) << 16
	if neg {
		flags |= decimalSignBit
	}
	binary.LittleEndian.PutUint32(out[12:16], flags)
	return out, nil
}
