package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/scythe504/quizroom-backend/internal"
)

// RoomCodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateID returns an opaque unique id for rooms, players and chat messages.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateRoomCode draws a fresh code from RoomCodeAlphabet using crypto/rand.
func GenerateRoomCode() string {
	alphabetLen := big.NewInt(int64(len(RoomCodeAlphabet)))
	code := make([]byte, internal.RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		code[i] = RoomCodeAlphabet[n.Int64()]
	}
	return string(code)
}

// NormalizeRoomCode upper-cases and trims user input.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode checks length and alphabet.
func IsValidRoomCode(code string) bool {
	if len(code) != internal.RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(RoomCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// TruncateUTF16 cuts s to at most limit UTF-16 code units without splitting a surrogate pair.
func TruncateUTF16(s string, limit int) string {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			return s[:i]
		}
		units += n
	}
	return s
}
