package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2024, 6, 30, 22, 15, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), Day(in))
	assert.Nil(t, DayPtr(nil))
}

func TestParseOptional(t *testing.T) {
	d, err := ParseOptional("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseOptional("2024-02-29")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.February, d.Month())

	_, err = ParseOptional("29/02/2024")
	assert.Error(t, err)
}
