package hash

import (
	"strings"
	"testing"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	digest, err := h.Hash("alex_password")
	require.NoError(t, err)
	require.NotEqual(t, "alex_password", digest)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))

	assert.True(t, h.Verify("alex_password", digest))
	assert.False(t, h.Verify("wrong_password", digest))
}

func TestHasher_SaltsEveryDigest(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	a, err := h.Hash("same_password")
	require.NoError(t, err)
	b, err := h.Hash("same_password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	tests := []struct {
		name   string
		digest string
	}{
		{name: "empty", digest: ""},
		{name: "garbage", digest: "not-a-bcrypt-hash"},
		{name: "truncated", digest: "$2a$04$abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, h.Verify("whatever", tt.digest))
		})
	}
}

func TestHasher_RejectsOverlongPassword(t *testing.T) {
	t.Parallel()

	_, err := New(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNew_InvalidCostFallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, New(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, New(99).Cost)
}
