package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_IsValidAndSortable(t *testing.T) {
	a := New()
	b := New()
	assert.True(t, Valid(a))
	assert.True(t, Valid(b))
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a[:10], b[:10])
}

func TestValid_RejectsGarbage(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-a-ulid"))
}
