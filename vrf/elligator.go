package vrf

import (
	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
)

// This file carries the two Elligator2 maps onto the Edwards form of
// Curve25519. Both take field elements to Montgomery x-coordinates via
// x = -A/(1+2r^2), move to the twisted Edwards curve and clear the cofactor,
// but they resolve the two Montgomery preimages differently: the draft-03
// map transports the input's sign bit onto the Edwards x-coordinate, while
// the draft-13 map signs the Edwards point by the parity of the recovered
// Montgomery y-coordinate.

const curve25519A = 486662

// sqrtAM2 is sqrt(-(A+2)) mod 2^255-19, the constant of the Montgomery to
// Edwards x-coordinate birational map x_ed = sqrt(-(A+2)) * u / v.
var sqrtAM2 = mustFieldElement([]byte{
	0x06, 0x7e, 0x45, 0xff, 0xaa, 0x04, 0x6e, 0xcc,
	0x82, 0x1a, 0x7d, 0x4b, 0xd1, 0xd3, 0xa1, 0xc5,
	0x7e, 0x4f, 0xfc, 0x03, 0xdc, 0x08, 0x7b, 0xd2,
	0xbb, 0x06, 0xa0, 0x60, 0xf4, 0xed, 0x26, 0x0f,
})

func mustFieldElement(b []byte) *field.Element {
	e, err := new(field.Element).SetBytes(b)
	if err != nil {
		panic(err)
	}
	return e
}

// pointFromUniform maps 32 uniform bytes to the prime-order subgroup, the
// draft-03 hash-to-curve map. The top bit of r selects the sign of the
// Edwards x-coordinate; the remaining 255 bits form the field element.
func pointFromUniform(r []byte) (*edwards25519.Point, error) {
	s := make([]byte, 32)
	copy(s, r)
	xSign := s[31] & 0x80
	s[31] &= 0x7f

	one := new(field.Element).One()
	rr2 := &field.Element{}
	// SetBytes reduces any 32-byte value mod p once the top bit is clear.
	if _, err := rr2.SetBytes(s); err != nil {
		return nil, err
	}

	// x = -A / (1 + 2r^2)
	rr2.Square(rr2)
	rr2.Add(rr2, rr2)
	rr2.Add(rr2, one)
	rr2.Invert(rr2)

	x := &field.Element{}
	x.Mult32(rr2, curve25519A)
	x.Negate(x)

	// e = chi(x^3 + Ax^2 + x) decides between the two candidate
	// x-coordinates without a branch.
	x2 := new(field.Element).Multiply(x, x)
	x3 := new(field.Element).Multiply(x, x2)
	e := new(field.Element).Add(x3, x)
	x2.Mult32(x2, curve25519A)
	e.Add(x2, e)
	e = chi25519(e)
	eBytes := e.Bytes()

	// e is 1, 0 or -1 = p-2; the second byte distinguishes -1.
	eIsMinus1 := int(eBytes[1] & 1)
	eIsNotMinus1 := eIsMinus1 ^ 1
	negx := new(field.Element).Negate(x)
	x.Select(x, negx, eIsNotMinus1)
	aElement := new(field.Element).Mult32(one, curve25519A)
	x2.Zero()
	x2.Select(x2, aElement, eIsNotMinus1)
	x.Subtract(x, x2)

	// y_ed = (x-1)/(x+1)
	xPlusOne := new(field.Element).Add(x, one)
	xMinusOne := new(field.Element).Subtract(x, one)
	yed := new(field.Element).Multiply(xMinusOne, new(field.Element).Invert(xPlusOne))

	s = yed.Bytes()
	s[31] |= xSign

	p := &edwards25519.Point{}
	if _, err := p.SetBytes(s); err != nil {
		return nil, err
	}
	return p.MultByCofactor(p), nil
}

// pointFromWideHash maps a 64-byte little-endian hash to the prime-order
// subgroup, the draft-13 hash-to-curve map. Unlike pointFromUniform the sign
// of the result is derived from the Montgomery y-coordinate, whose chosen
// parity encodes whether the first Elligator2 candidate was a square.
func pointFromWideHash(wide []byte) (*edwards25519.Point, []byte, error) {
	one := new(field.Element).One()
	r := &field.Element{}
	if _, err := r.SetWideBytes(wide); err != nil {
		return nil, nil, err
	}

	// x = -A / (1 + 2r^2), with fallback to -x - A when the curve
	// equation has no solution at x.
	rr2 := new(field.Element).Square(r)
	rr2.Add(rr2, rr2)
	rr2.Add(rr2, one)
	rr2.Invert(rr2)

	x := &field.Element{}
	x.Mult32(rr2, curve25519A)
	x.Negate(x)

	gx1 := montgomeryRHS(x)
	// SqrtRatio returns the even square root and whether one exists.
	y, wasSquare := new(field.Element).SqrtRatio(gx1, one)
	if wasSquare != 1 {
		aElement := new(field.Element).Mult32(one, curve25519A)
		x.Negate(x)
		x.Subtract(x, aElement)
		gx1 = montgomeryRHS(x)
		y, _ = new(field.Element).SqrtRatio(gx1, one)
	}

	// The y parity carries the square/notsquare bit: y must be odd
	// exactly when the first candidate was a square. SqrtRatio returns
	// the even root, so negating on wasSquare sets the parity.
	negY := new(field.Element).Negate(y)
	y.Select(negY, y, wasSquare)

	// Birational map to Edwards: x_ed = sqrt(-(A+2)) * x / y,
	// y_ed = (x-1)/(x+1).
	xEd := new(field.Element).Multiply(sqrtAM2, x)
	xEd.Multiply(xEd, new(field.Element).Invert(y))
	xPlusOne := new(field.Element).Add(x, one)
	xMinusOne := new(field.Element).Subtract(x, one)
	yEd := new(field.Element).Multiply(xMinusOne, new(field.Element).Invert(xPlusOne))

	s := yEd.Bytes()
	s[31] = (s[31] & 0x7f) | byte(xEd.IsNegative()<<7)

	p := &edwards25519.Point{}
	if _, err := p.SetBytes(s); err != nil {
		return nil, nil, err
	}
	p.MultByCofactor(p)
	return p, p.Bytes(), nil
}

// montgomeryRHS evaluates x^3 + Ax^2 + x, the right-hand side of the
// Montgomery curve equation.
func montgomeryRHS(x *field.Element) *field.Element {
	x2 := new(field.Element).Square(x)
	x3 := new(field.Element).Multiply(x2, x)
	ax2 := new(field.Element).Mult32(x2, curve25519A)
	out := new(field.Element).Add(x3, ax2)
	return out.Add(out, x)
}

// chi25519 computes the quadratic character z^((p-1)/2) with a fixed
// square-and-multiply ladder, yielding 1 for squares, -1 for non-squares
// and 0 for zero.
func chi25519(z *field.Element) *field.Element {
	t0 := &field.Element{}
	t1 := &field.Element{}
	t2 := &field.Element{}
	t3 := &field.Element{}

	t0.Square(z)
	t1.Multiply(t0, z)
	t0.Square(t1)
	t2.Square(t0)
	t2.Square(t2)
	t2.Multiply(t2, t0)
	t1.Multiply(t2, z)
	t2.Square(t1)
	for i := 1; i < 5; i++ {
		t2.Square(t2)
	}
	t1.Multiply(t2, t1)
	t2.Square(t1)
	for i := 1; i < 10; i++ {
		t2.Square(t2)
	}
	t2.Multiply(t2, t1)
	t3.Square(t2)
	for i := 1; i < 20; i++ {
		t3.Square(t3)
	}
	t2.Multiply(t3, t2)
	t2.Square(t2)
	for i := 1; i < 10; i++ {
		t2.Square(t2)
	}
	t1.Multiply(t2, t1)
	t2.Square(t1)
	for i := 1; i < 50; i++ {
		t2.Square(t2)
	}
	t2.Multiply(t2, t1)
	t3.Square(t2)
	for i := 1; i < 100; i++ {
		t3.Square(t3)
	}
	t2.Multiply(t3, t2)
	t2.Square(t2)
	for i := 1; i < 50; i++ {
		t2.Square(t2)
	}
	t1.Multiply(t2, t1)
	t1.Square(t1)
	for i := 1; i < 4; i++ {
		t1.Square(t1)
	}
	return new(field.Element).Multiply(t1, t0)
}
