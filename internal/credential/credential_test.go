package credential

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashFormat(t *testing.T) {
	h, err := Hash("admin123@")
	require.NoError(t, err)

	parts := strings.Split(h, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, Algorithm, parts[0])
	assert.Equal(t, "260000", parts[1])
	assert.Len(t, parts[2], 24, "16-byte salt in standard base64")
	assert.Len(t, parts[3], 44, "32-byte key in standard base64")

	again, err := Hash("admin123@")
	require.NoError(t, err)
	assert.NotEqual(t, h, again, "salt is random")
}

func TestHashEmpty(t *testing.T) {
	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerify(t *testing.T) {
	stored := encode("segredo", []byte("0123456789abcdef"), 1000)
	legacyBcrypt, err := bcrypt.GenerateFromPassword([]byte("segredo"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		stored   string
		want     bool
	}{
		{"pbkdf2 match", "segredo", stored, true},
		{"pbkdf2 mismatch", "Segredo", stored, false},
		{"bcrypt match", "segredo", string(legacyBcrypt), true},
		{"bcrypt mismatch", "outro", string(legacyBcrypt), false},
		{"plaintext match", "segredo", "segredo", true},
		{"plaintext mismatch", "segredo", "segredo2", false},
		{"empty stored", "", "", false},
		{"bad iterations", "segredo", "pbkdf2_sha256$abc$AAAA$AAAA", false},
		{"bad salt", "segredo", "pbkdf2_sha256$1000$***$AAAA", false},
		{"missing key", "segredo", "pbkdf2_sha256$1000$AAAA", false},
		{"iterations above limit", "segredo", "pbkdf2_sha256$2000000000$MDEyMzQ1Njc4OWFiY2RlZg==$AAAA", false},
		{"key above limit", "segredo", "pbkdf2_sha256$1000$MDEyMzQ1Njc4OWFiY2RlZg==$" + strings.Repeat("A", 4*((MaxKeyLen+3)/3)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.password, tt.stored))
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	current, err := Hash("x")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(current))
	assert.True(t, NeedsRehash(encode("x", []byte("salt"), 1000)))
	assert.True(t, NeedsRehash("$2b$10$abcdefghijklmnopqrstuu"))
	assert.True(t, NeedsRehash("plain"))
}

func TestVerifyRejectsOversizedHash(t *testing.T) {
	stored := encode("segredo", []byte("0123456789abcdef"), 1000)
	parts := strings.Split(stored, "$")
	require.Len(t, parts, 4)

	long := strings.Join([]string{parts[0], strconv.Itoa(MaxIterations + 1), parts[2], parts[3]}, "$")
	start := time.Now()
	assert.False(t, Verify("segredo", long))
	assert.Less(t, time.Since(start), time.Second, "oversized hashes are rejected before key derivation")
}
