package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/kpxscraper/internal/config"
)

func TestDebugPageURL(t *testing.T) {
	cfg := &config.Config{URLs: config.URLConfig{Price: "http://localhost/smp"}}

	got, err := debugPageURL(cfg, "price")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/smp", got)

	got, err = debugPageURL(cfg, "long-term")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLongTermURL, got)

	_, err = debugPageURL(cfg, "usage")
	assert.Error(t, err)
}
