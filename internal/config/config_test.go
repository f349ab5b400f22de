package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SandboxRequiresLocalEndpointAndNonProd(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")
	assert.False(t, Load().Sandbox, "production must never be a sandbox")

	t.Setenv("APP_ENV", "development")
	t.Setenv("AWS_ENDPOINT_URL", "")
	assert.False(t, Load().Sandbox, "no local endpoint, no sandbox")

	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")
	assert.True(t, Load().Sandbox)
}

func TestLoad_TokenWindowsFollowSandboxPredicate(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AWS_ENDPOINT_URL", "")
	cfg := Load()
	assert.Equal(t, ProdAccessTokenTTL, cfg.AccessTokenTTL)
	assert.Equal(t, ProdRefreshTokenTTL, cfg.RefreshTokenTTL)

	t.Setenv("APP_ENV", "development")
	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")
	cfg = Load()
	assert.Equal(t, SandboxAccessTokenTTL, cfg.AccessTokenTTL)
	assert.Equal(t, SandboxRefreshTokenTTL, cfg.RefreshTokenTTL)
}

func TestLoad_DevAccountsIgnoredOutsideSandbox(t *testing.T) {
	t.Setenv("DEV_ACCOUNTS", "dev-1:dev@local.test:Dev One:tok-abc")

	t.Setenv("APP_ENV", "production")
	t.Setenv("AWS_ENDPOINT_URL", "")
	assert.Empty(t, Load().DevAccounts)

	t.Setenv("APP_ENV", "development")
	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")
	accounts := Load().DevAccounts
	require.Len(t, accounts, 1)
	assert.Equal(t, "dev-1", accounts[0].UserID)
	assert.Equal(t, "tok-abc", accounts[0].Token)
}

func TestParseDevAccounts_SkipsMalformedEntries(t *testing.T) {
	accounts := parseDevAccounts("a:b@x.com:B:tok1, bad-entry ,c:d@x.com:D:tok2,:e@x.com:E:tok3")
	require.Len(t, accounts, 2)
	assert.Equal(t, "a", accounts[0].UserID)
	assert.Equal(t, "c", accounts[1].UserID)
}
