package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	o, err := parseOptions([]string{"-d", "postgres://x", "-from", "2024-02-01T00:00:00Z", "-pool", "3"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), o.from)
	assert.Equal(t, now, o.to)
	assert.Equal(t, 3, o.pool)

	o, err = parseOptions([]string{"-from=2024-02-01T00:00:00Z", "-to=2024-02-02T12:00:00Z"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC), o.to)
	assert.Zero(t, o.pool)
}

func TestParseOptions_Errors(t *testing.T) {
	now := time.Now()

	_, err := parseOptions(nil, now)
	assert.ErrorContains(t, err, "-from is required")

	_, err = parseOptions([]string{"-from", "yesterday"}, now)
	assert.ErrorContains(t, err, "-from")

	_, err = parseOptions([]string{"-from", "2024-02-01T00:00:00Z", "-to", "soon"}, now)
	assert.ErrorContains(t, err, "-to")
}
