package engine

import (
	"fmt"
	"path"
	"strings"
)

const (
	slotPrefix = "yfile-"
	slotSuffix = ".bin"

	// partitionReserve is kept free below the partition size when no explicit
	// file ceiling is configured.
	partitionReserve = 0x2000
)

// SlotName returns the base name of slot n.
func SlotName(n int) string {
	return fmt.Sprintf("%s%d%s", slotPrefix, n, slotSuffix)
}

// SlotPath returns the store path of slot n under base.
func SlotPath(base string, n int) string {
	return path.Join(base, SlotName(n))
}

// SlotPattern matches every slot file directly under base.
func SlotPattern(base string) string {
	return path.Join(escapeGlob(base), slotPrefix+"*"+slotSuffix)
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[\`) {
		return s
	}
	var b strings.Builder
	for i := range len(s) {
		switch s[i] {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// partitionCeiling is the largest file a partition of total bytes accepts.
func partitionCeiling(total uint64) uint64 {
	if total <= partitionReserve {
		return 0
	}
	return total - partitionReserve
}
