package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateRoomCode()
		require.Len(t, code, 6)
		assert.True(t, IsValidRoomCode(code), "code %q outside alphabet", code)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "K3P9QR", NormalizeRoomCode("  k3p9qr "))
	assert.True(t, IsValidRoomCode("K3P9QR"))
	assert.False(t, IsValidRoomCode("K3P9Q"))
	assert.False(t, IsValidRoomCode("K3P9Q0"))
}

func TestTruncateUTF16(t *testing.T) {
	assert.Equal(t, "hello", TruncateUTF16("hello", 200))
	assert.Equal(t, "hel", TruncateUTF16("hello", 3))

	long := strings.Repeat("a", 250)
	assert.Len(t, TruncateUTF16(long, 200), 200)

	// each emoji is two UTF-16 code units
	emoji := strings.Repeat("😀", 101)
	out := TruncateUTF16(emoji, 200)
	assert.Equal(t, strings.Repeat("😀", 100), out)

	// never split a surrogate pair
	assert.Equal(t, "a", TruncateUTF16("a😀", 2))
}
