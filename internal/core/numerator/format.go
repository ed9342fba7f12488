package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders prefix followed by value zero-padded to width.
func Format(prefix string, width int, value int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, value)
}

// Parse splits a formatted number into its prefix (with trailing dash) and
// sequence value. "JV-2026-00042" yields ("JV-2026-", 42).
func Parse(number string) (prefix string, value int64, err error) {
	i := strings.LastIndexByte(number, '-')
	if i <= 0 || i == len(number)-1 {
		return "", 0, fmt.Errorf("invalid document number %q", number)
	}
	value, err = strconv.ParseInt(number[i+1:], 10, 64)
	if err != nil || value < 0 {
		return "", 0, fmt.Errorf("invalid sequence in %q", number)
	}
	return number[:i+1], value, nil
}
