package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpos/backend/internal/httpapi"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestRunPrintsVerifiableToken(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_SECRET", secret)

	var out bytes.Buffer
	require.NoError(t, run([]string{"-actor", "stock-1", "-role", "STOCK_MANAGER", "-ttl", "30m"}, &out))

	token, _, _ := strings.Cut(out.String(), "\n")
	auth, err := httpapi.NewAuthManager(secret, time.Hour)
	require.NoError(t, err)
	actor, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "stock-1", actor.ID)
	assert.Equal(t, httpapi.RoleStockManager, actor.Role)
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_SECRET", secret)

	var out bytes.Buffer
	assert.Error(t, run([]string{"-actor", "stock-1", "-role", "owner"}, &out))
	assert.Error(t, run([]string{"-role", "admin"}, &out))

	t.Setenv("AUTH_SECRET", "short")
	assert.Error(t, run([]string{"-actor", "admin-1", "-role", "admin"}, &out))
}
