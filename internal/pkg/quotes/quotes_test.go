package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Equal(t, `"Hope"`, Wrap("Hope", false))
	assert.Equal(t, `""`, Wrap("", false))
	assert.Equal(t, `"""a
b"""`, Wrap("a\nb", true))
}
