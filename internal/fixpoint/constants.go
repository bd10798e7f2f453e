package fixpoint

// Word length limits
const (
	signBits = 1 // One bit reserved for the sign

	// maxWordLength keeps every representable integer exact in a float64.
	maxWordLength = 53
)

// Radix values declared to consumers of quantized data.
const (
	radixDecimal = 10
	radixHex     = 16
)

// roundingOffset is added before flooring for round-half-up quantization.
const roundingOffset = 0.5
