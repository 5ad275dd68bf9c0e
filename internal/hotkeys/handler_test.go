package hotkeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIgnoreMasksCoversLockCombinations(t *testing.T) {
	const caps, num, scroll = 0x02, 0x10, 0x80
	assert.Equal(t, []uint16{0, caps, num, caps | num, scroll, caps | scroll, num | scroll, caps | num | scroll},
		ignoreMasks(caps, num, scroll))
}

func TestIgnoreMasksSkipsMissingAndDuplicateLocks(t *testing.T) {
	const caps = 0x02
	assert.Equal(t, []uint16{0, caps}, ignoreMasks(caps, 0, caps))
	assert.Equal(t, []uint16{0, caps, 0x10, caps | 0x10}, ignoreMasks(caps, 0x10, 0x10))
}
