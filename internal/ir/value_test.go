package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "idle", FormatValue(IRString("idle")))
	assert.Equal(t, "1", FormatValue(IRInt(1)))
	assert.Equal(t, "true", FormatValue(IRBool(true)))
	assert.Equal(t, "<unset>", FormatValue(nil))
}

func TestValueFromAny(t *testing.T) {
	v, err := ValueFromAny("seq:f18")
	require.NoError(t, err)
	assert.Equal(t, IRString("seq:f18"), v)

	v, err = ValueFromAny(1)
	require.NoError(t, err)
	assert.Equal(t, IRInt(1), v)

	v, err = ValueFromAny(false)
	require.NoError(t, err)
	assert.Equal(t, IRBool(false), v)

	_, err = ValueFromAny(1.5)
	assert.Error(t, err, "floats are forbidden")

	_, err = ValueFromAny([]string{"x"})
	assert.Error(t, err)
}
