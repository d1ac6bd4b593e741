package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledColoursArePlain(t *testing.T) {
	Disable()
	assert.Equal(t, "you", ColorRole("user", "you"))
	assert.Equal(t, "bot", ColorRole("assistant", "bot"))
	assert.Equal(t, "oops", ColorError("oops"))
	assert.Equal(t, "12:30", ColorTime("12:30"))
}
