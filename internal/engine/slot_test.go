package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/flashdrop/internal/filter"
)

func TestSlotNames(t *testing.T) {
	assert.Equal(t, "yfile-1.bin", SlotName(1))
	assert.Equal(t, "yfile-12.bin", SlotName(12))
	assert.Equal(t, "/yfile-3.bin", SlotPath("/", 3))
	assert.Equal(t, "/spiffs/yfile-3.bin", SlotPath("/spiffs", 3))
	assert.Equal(t, "/yfile-*.bin", SlotPattern("/"))
	assert.Equal(t, "/spiffs/yfile-*.bin", SlotPattern("/spiffs"))
}

func TestSlotPatternEscapesBase(t *testing.T) {
	pattern := SlotPattern("/odd[1]*")
	assert.Equal(t, `/odd\[1]\*/yfile-*.bin`, pattern)

	ok, err := filter.Match(pattern, "/odd[1]*/yfile-4.bin", filter.Pathname|filter.Period)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = filter.Match(pattern, "/odd1x/yfile-4.bin", filter.Pathname|filter.Period)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPartitionCeiling(t *testing.T) {
	assert.Equal(t, uint64(1<<20-0x2000), partitionCeiling(1<<20))
	assert.Equal(t, uint64(0), partitionCeiling(0x2000))
	assert.Equal(t, uint64(0), partitionCeiling(0))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "SendFailed", SendFailed.String())
	assert.Equal(t, "Unknown", State(99).String())
}
