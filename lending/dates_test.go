package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	got, err := ParseDay("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	from, err := ParseDay("2026-02-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *from)

	to, err := ParseDay("2026-02-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 23, 59, 59, 999999999, time.UTC), *to)

	_, err = ParseDay("01/02/2026", false)
	assert.ErrorIs(t, err, ErrValidation)
}
