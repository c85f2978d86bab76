package listing

import "fmt"

// FormatSize renders a size in the fixed 8-column form used by listings:
// plain bytes below 1 MiB, whole KiB below 1 GiB, whole MiB above.
func FormatSize(n uint64) string {
	switch {
	case n < 1<<20:
		return fmt.Sprintf("%8d", n)
	case n/1024 < 1<<20:
		return fmt.Sprintf("%6dKB", n/1024)
	default:
		return fmt.Sprintf("%6dMB", n/(1<<20))
	}
}
