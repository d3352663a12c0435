package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-03-01"))
	assert.False(t, ValidDate("2026-02-30"))
	assert.False(t, ValidDate("03/01/2026"))
	assert.False(t, ValidDate(""))
}
