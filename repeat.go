package zplgraphic

const (
	// MaxRepeatCount is the longest run a two character repeat code can express.
	MaxRepeatCount = 419

	// maxRun caps a single nibble run before it is turned into a repeat code.
	maxRun = 400
)

// index 0 is unused, count 0 has no code
const (
	repeatLow  = " GHIJKLMNOPQRSTUVWXY"
	repeatHigh = " ghijklmnopqrstuvwxyz"
)

// RepeatCode returns the ZPL compression code multiplying the following hex
// digit count times. A code is one or two characters: g..z count twenties,
// G..Y count ones.
func RepeatCode(count int) (string, error) {
	if count < 1 || count > MaxRepeatCount {
		return "", &RangeError{Count: count}
	}

	high := count / 20
	low := count % 20

	code := make([]byte, 0, 2)
	if high > 0 {
		code = append(code, repeatHigh[high])
	}
	if low > 0 {
		code = append(code, repeatLow[low])
	}
	return string(code), nil
}

// repeatValue maps a single repeat code character back to its multiplier.
func repeatValue(c byte) (int, bool) {
	switch {
	case c >= 'G' && c <= 'Y':
		return int(c-'G') + 1, true
	case c >= 'g' && c <= 'z':
		return (int(c-'g') + 1) * 20, true
	}
	return 0, false
}
