package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

func parseFilterFlags(t *testing.T, args ...string) filterFlags {
	t.Helper()
	var f filterFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return f
}

func TestFilterFlags(t *testing.T) {
	f := parseFilterFlags(t, "--from", "2024-01-01", "--to", "2024-01-31", "--city", "Dubai,Sharjah", "--tier", "Gold")
	spec, err := f.spec()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), spec.Start)
	assert.Equal(t, []string{"Dubai", "Sharjah"}, spec.Cities)
	assert.Equal(t, []string{"Gold"}, spec.Tiers)

	f = parseFilterFlags(t, "--from", "2024-02-01", "--to", "2024-01-01")
	_, err = f.spec()
	assert.ErrorIs(t, err, gerr.ErrInvalidFilter)

	f = parseFilterFlags(t, "--from", "yesterday")
	_, err = f.spec()
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"orders": 3}, false))
	assert.Equal(t, "{\"orders\":3}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeJSON(&buf, map[string]int{"orders": 3}, true))
	assert.Equal(t, "{\n  \"orders\": 3\n}\n", buf.String())
}
