// Package interleave splits fixed-size values into byte planes.
//
// Float payloads compress better when the bytes at the same position of
// every value are stored together: exponents and high mantissa bytes of
// neighbouring channel values are often identical. With stride 4 the
// float32 sequence
//
//	[a0 a1 a2 a3  b0 b1 b2 b3]
//
// becomes
//
//	[a0 b0  a1 b1  a2 b2  a3 b3]
package interleave

// Interleave writes the byte planes of src to dst. len(dst) must equal
// len(src). Trailing bytes that do not form a whole value are copied last
// unchanged.
func Interleave(dst, src []byte, stride int) {
	if stride <= 1 {
		copy(dst, src)
		return
	}
	n := len(src) / stride
	whole := n * stride
	for plane := 0; plane < stride; plane++ {
		out := dst[plane*n : (plane+1)*n]
		for i := range out {
			out[i] = src[i*stride+plane]
		}
	}
	copy(dst[whole:], src[whole:])
}

// Deinterleave reverses Interleave.
func Deinterleave(dst, src []byte, stride int) {
	if stride <= 1 {
		copy(dst, src)
		return
	}
	n := len(src) / stride
	whole := n * stride
	for plane := 0; plane < stride; plane++ {
		in := src[plane*n : (plane+1)*n]
		for i, b := range in {
			dst[i*stride+plane] = b
		}
	}
	copy(dst[whole:], src[whole:])
}
