package display

// Segment bits for the four-digit glass driven by the PCF8576. Bit 0 of each
// digit byte is the decimal point on digits 1-3 and the colon on digit 4.
const (
	segDot   byte = 0x01
	segColon byte = 0x01
	segMinus byte = 0x80
)

// digitSegments holds the segment patterns for 0-9, in the LCD's wiring order.
var digitSegments = [10]byte{
	0x7e, // 0
	0x12, // 1
	0xbc, // 2
	0xb6, // 3
	0xd2, // 4
	0xe6, // 5
	0xee, // 6
	0x32, // 7
	0xfe, // 8
	0xf6, // 9
}

// saturate limits a clock field to 0..59.
func saturate(v int) int {
	if v < 0 {
		return 0
	}
	if v > 59 {
		return 59
	}
	return v
}

// EncodeTime returns the segment bytes for MM:SS with the colon lit.
func EncodeTime(minutes, seconds int) [4]byte {
	minutes = saturate(minutes)
	seconds = saturate(seconds)
	return [4]byte{
		digitSegments[minutes/10],
		digitSegments[minutes%10],
		digitSegments[seconds/10],
		digitSegments[seconds%10] | segColon,
	}
}

// EncodeDashes returns "--:--", shown before the first render.
func EncodeDashes() [4]byte {
	return [4]byte{segMinus, segMinus, segMinus, segMinus | segColon}
}
