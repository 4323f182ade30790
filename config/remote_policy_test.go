package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveProxyPrefersRemoteOwnSetting(t *testing.T) {
	c := &RemoteConfig{Proxy: "http://remote-proxy:8080"}
	assert.Equal(t, "http://remote-proxy:8080", c.EffectiveProxy("http://repo-proxy:8080"))
}

func TestEffectiveProxyFallsBackToRepositoryWide(t *testing.T) {
	c := &RemoteConfig{}
	assert.Equal(t, "http://repo-proxy:8080", c.EffectiveProxy("http://repo-proxy:8080"))
}

func TestEffectiveProxyFallsBackToEnvironment(t *testing.T) {
	for _, name := range []string{"https_proxy", "http_proxy", "HTTPS_PROXY", "HTTP_PROXY"} {
		t.Setenv(name, "")
	}
	t.Setenv("https_proxy", "http://env-proxy:3128")

	c := &RemoteConfig{}
	assert.Equal(t, "http://env-proxy:3128", c.EffectiveProxy(""))
}

func TestEffectiveProxyPrefersLowercaseEnvOverUppercase(t *testing.T) {
	for _, name := range []string{"https_proxy", "http_proxy", "HTTPS_PROXY", "HTTP_PROXY"} {
		t.Setenv(name, "")
	}
	t.Setenv("HTTPS_PROXY", "http://upper:3128")
	t.Setenv("https_proxy", "http://lower:3128")

	c := &RemoteConfig{}
	assert.Equal(t, "http://lower:3128", c.EffectiveProxy(""))
}

func TestEffectiveProxyEmptyWhenNothingSet(t *testing.T) {
	for _, name := range []string{"https_proxy", "http_proxy", "HTTPS_PROXY", "HTTP_PROXY"} {
		t.Setenv(name, "")
	}

	c := &RemoteConfig{}
	assert.Equal(t, "", c.EffectiveProxy(""))
}

func TestEffectivePruneRemoteOverridesFallback(t *testing.T) {
	yes, no := true, false
	assert.True(t, (&RemoteConfig{Prune: &yes}).EffectivePrune(false))
	assert.False(t, (&RemoteConfig{Prune: &no}).EffectivePrune(true))
}

func TestEffectivePruneUnspecifiedUsesFallback(t *testing.T) {
	c := &RemoteConfig{}
	assert.True(t, c.EffectivePrune(true))
	assert.False(t, c.EffectivePrune(false))
}

func TestConfigFetchPruneAndHTTPProxyRoundTrip(t *testing.T) {
	input := []byte(`[fetch]
	prune = true
[http]
	proxy = http://repo-proxy:8080
`)

	cfg := NewConfig()
	require.NoError(t, cfg.Unmarshal(input))
	assert.True(t, cfg.Fetch.Prune)
	assert.Equal(t, "http://repo-proxy:8080", cfg.HTTP.Proxy)

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "[fetch]")
	assert.Contains(t, string(out), "prune = true")
	assert.Contains(t, string(out), "[http]")
	assert.Contains(t, string(out), "proxy = http://repo-proxy:8080")
}

func TestConfigFetchPruneDefaultsFalse(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Unmarshal(nil))
	assert.False(t, cfg.Fetch.Prune)
	assert.Equal(t, "", cfg.HTTP.Proxy)

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "[fetch]")
	assert.NotContains(t, string(out), "[http]")
}
