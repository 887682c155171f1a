package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteList(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"route:list"})
	require.NoError(t, rootCmd.Execute())

	text := out.String()
	assert.Contains(t, text, "/api/orders/{id}/invoice")
	assert.Contains(t, text, "auth.login")
	assert.Contains(t, text, "DELETE")
}

func TestServe_FailsWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	dir := t.TempDir()
	rootCmd.SetArgs([]string{"serve", "--config", dir + "/none.yaml", "--env-file", dir + "/none.env"})
	assert.Error(t, rootCmd.Execute())
}
