// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 21*24*time.Hour, cfg.UnstakingPeriod.Std())
	assert.Equal(t, uint32(500), cfg.SlashingPercentage)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min stake", func(c *Config) { c.MinStake = 0 }},
		{"inverted bounds", func(c *Config) { c.MaxStake = c.MinStake - 1 }},
		{"zero unstaking period", func(c *Config) { c.UnstakingPeriod = 0 }},
		{"slashing over 100%", func(c *Config) { c.SlashingPercentage = 10_001 }},
		{"commission over 100%", func(c *Config) { c.DefaultCommission = 10_001 }},
		{"apy over 100%", func(c *Config) { c.RewardAPY = 10_001 }},
		{"zero capacity", func(c *Config) { c.MaxPools = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("minStake: 500\nunstakingPeriod: 168h\nslashingPercentage: 1000\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), cfg.MinStake)
	assert.Equal(t, 7*24*time.Hour, cfg.UnstakingPeriod.Std())
	assert.Equal(t, uint32(1000), cfg.SlashingPercentage)
	// unset fields keep their defaults
	assert.Equal(t, uint32(500), cfg.DefaultCommission)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("minStake: 0\n"), 0o600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}
