package fanout

import (
	"strconv"
	"strings"
)

// formatINR renders an amount with Indian digit grouping, e.g. 1234567.5
// becomes "₹12,34,567.5". The storefront prices in rupees, so the symbol is
// fixed here rather than configurable.
func formatINR(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', -1, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	// Indian grouping: the last three digits, then pairs.
	var b strings.Builder
	b.WriteString("₹")
	if neg {
		b.WriteByte('-')
	}
	if len(intPart) > 3 {
		head := intPart[:len(intPart)-3]
		for len(head) > 2 {
			cut := len(head) % 2
			if cut == 0 {
				cut = 2
			}
			b.WriteString(head[:cut])
			b.WriteByte(',')
			head = head[cut:]
		}
		b.WriteString(head)
		b.WriteByte(',')
		b.WriteString(intPart[len(intPart)-3:])
	} else {
		b.WriteString(intPart)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
