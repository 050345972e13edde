// internal/models/date_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")

	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year)
	assert.Equal(t, "2024-01-15", d.String())
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "01/15/2024", "2024-13-01", "yesterday"} {
		_, err := ParseDate(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDateNextRollsOver(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", d.Next().String())

	d, err = ParseDate("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.Next().String()) // leap year

	d, err = ParseDate("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", d.Next().String())
}

func TestDateOrdering(t *testing.T) {
	a, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	b, err := ParseDate("2024-01-16")
	require.NoError(t, err)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.Equal(t, 1, a.DaysUntil(b))
	assert.Equal(t, -6, a.DaysUntil(a.AddDays(-6)))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-06-09")
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-09"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)
}
