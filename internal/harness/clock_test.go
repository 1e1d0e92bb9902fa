package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Now())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	c.AdvanceTo(250)
	c.AdvanceTo(100)
	assert.Equal(t, int64(250), c.Now(), "clock never moves backwards")

	c.Reset()
	assert.Equal(t, int64(0), c.Now())
	assert.Equal(t, int64(1), c.Next())
}
