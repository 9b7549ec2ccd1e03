package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Number formats large numbers with commas for readability.
// For example: 1234567 becomes "1,234,567"
func Number(n int64) string {
	str := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

// Duration formats time duration in human-readable form.
// Examples:
//   - Less than 1 second: "340ms"
//   - Less than 1 minute: "5.2s"
//   - Less than 1 hour: "3m5.2s"
//   - 1 hour or more: "2h15m"
func Duration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		minutes := int(d.Minutes())
		seconds := d.Seconds() - float64(minutes*60)
		return fmt.Sprintf("%dm%.1fs", minutes, seconds)
	default:
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
}

// Bytes formats a byte count with a binary unit suffix.
// Examples:
//   - Less than 1 KiB: "512 B"
//   - Less than 1 MiB: "12.3 KiB"
//   - 1 MiB or more: "4.5 MiB", "1.2 GiB"
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 4; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTP"[exp])
}

// Ratio formats written/raw as a percentage, or "-" when raw is zero.
func Ratio(written, raw int64) string {
	if raw == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(written)*100/float64(raw))
}
