package matfile

// File header layout
const (
	headerSize     = 128
	headerTextSize = 116
	subsysSize     = 8
	version        = 0x0100
	headerText     = "MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: "
	ctimeLayout    = "Mon Jan _2 15:04:05 2006"
)

// Data element types
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// Array classes
const (
	classDouble = 6  // mxDOUBLE_CLASS, first numeric class
	classUint64 = 15 // mxUINT64_CLASS, last numeric class

	classMask   = 0xff
	complexFlag = 0x0800
)

// Tag layout
const (
	tagSize        = 8
	smallDataSize  = 4
	smallSizeShift = 16
	alignment      = 8
	dimsLength     = 2
)
