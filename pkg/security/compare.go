package security

// ConstantTimeCompare reports whether a and b are equal without stopping at
// the first mismatching byte.
//
// Inputs of different length return false immediately, so the length of a
// secret is observable through timing. Callers comparing fixed-length tokens
// are unaffected.
func ConstantTimeCompare(a, b string) bool {
	return compare(a, b, nil)
}

// compare calls step once per visited position; tests use it to count iterations.
func compare(a, b string, step func(int)) bool {
	if len(a) != len(b) {
		return false
	}
	var acc byte
	for i := 0; i < len(a); i++ {
		if step != nil {
			step(i)
		}
		acc |= a[i] ^ b[i]
	}
	return acc == 0
}
