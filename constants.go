package filterio

// Well-known FilterState keys
const (
	KeyCoefficients = "ba"      // [][]float64{b, a}
	KeyFilterType   = "ft"      // "FIR" or "IIR"
	KeyResponseType = "rt"      // "LP", "HP", "BP", ...
	KeyOrder        = "N"       // filter order
	KeySampleRate   = "f_S"     // sample rate in Hz
	KeyQuantization = "q_coeff" // nested quantization settings
	KeyName         = "name"
)

// Quantization setting keys inside KeyQuantization
const (
	quantKeyFormat   = "frmt"
	quantKeyQI       = "QI"
	quantKeyQF       = "QF"
	quantKeyQuant    = "quant"
	quantKeyOverflow = "ovfl"
)

// Filter types
const (
	FilterFIR = "FIR"
	FilterIIR = "IIR"
)

// Coefficient export layout
const (
	coefficientEntry = "ba" // entry / variable name in .npz and .mat files
	npyMemberSuffix  = ".npy"
	headerNumerator  = "b"
	headerDenom      = "a"
	csvFloatDigits   = 18 // numpy savetxt default "%.18e"
	coefficientRows  = 2
)

// Defaults
const (
	defaultCSVDelimiter    = ", "
	defaultImpulseBitDepth = 24
	defaultSampleRate      = 48000.0
	defaultOrder           = 10
	defaultQF              = 15
	defaultProduct         = "go-filter-io 0.1"
	defaultProductURL      = "https://github.com/tphakala/go-filter-io"
)

// pickleProtocol is the protocol of written .pkl files.
const pickleProtocol = 2

// File permissions
const (
	filePerm = 0o644
)
