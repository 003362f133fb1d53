package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "EAAB******wxyz", maskToken("EAABabcdefwxyz"))
	assert.Equal(t, "*****", maskToken("short"))
	assert.Equal(t, "", maskToken(""))
}
