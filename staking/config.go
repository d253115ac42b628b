// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration decodes yaml scalars like "504h" or plain nanosecond
// integers into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		*d = Duration(v)
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, "parse duration")
		}
		*d = Duration(parsed)
	default:
		return errors.Errorf("cannot decode %q as duration", node.Value)
	}
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config carries the system parameters of the engine. Changes apply
// prospectively; amounts already staked are never re-validated.
type Config struct {
	MinStake           uint64   `yaml:"minStake"`
	MaxStake           uint64   `yaml:"maxStake"`
	UnstakingPeriod    Duration `yaml:"unstakingPeriod"`
	SlashingPercentage uint32   `yaml:"slashingPercentage"` // basis points
	DefaultCommission  uint32   `yaml:"defaultCommission"`  // basis points
	RewardAPY          uint32   `yaml:"rewardAPY"`          // annual yield in basis points
	QuantumSafe        bool     `yaml:"quantumSafe"`

	MaxValidators  int `yaml:"maxValidators"`
	MaxPools       int `yaml:"maxPools"`
	MaxPositions   int `yaml:"maxPositions"`
	MaxDerivatives int `yaml:"maxDerivatives"`
	MaxProtections int `yaml:"maxProtections"`
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		MinStake:           1_000_000,
		MaxStake:           1_000_000_000_000,
		UnstakingPeriod:    Duration(21 * 24 * time.Hour),
		SlashingPercentage: 500,
		DefaultCommission:  500,
		RewardAPY:          500,
		QuantumSafe:        false,
		MaxValidators:      10_000,
		MaxPools:           1_000,
		MaxPositions:       1_000_000,
		MaxDerivatives:     4_000,
		MaxProtections:     1_000_000,
	}
}

// Validate checks the parameters for internal consistency.
func (c *Config) Validate() error {
	if c.MinStake == 0 {
		return errors.New("minStake must be positive")
	}
	if c.MaxStake < c.MinStake {
		return errors.New("maxStake below minStake")
	}
	if c.UnstakingPeriod <= 0 {
		return errors.New("unstakingPeriod must be positive")
	}
	if c.SlashingPercentage > 10_000 {
		return errors.New("slashingPercentage exceeds 100%")
	}
	if c.DefaultCommission > 10_000 {
		return errors.New("defaultCommission exceeds 100%")
	}
	if c.RewardAPY > 10_000 {
		return errors.New("rewardAPY exceeds 100%")
	}
	if c.MaxValidators <= 0 || c.MaxPools <= 0 || c.MaxPositions <= 0 ||
		c.MaxDerivatives <= 0 || c.MaxProtections <= 0 {
		return errors.New("capacity limits must be positive")
	}
	return nil
}

// LoadConfig reads a yaml config file, filling unset fields with the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "validate config")
	}
	return cfg, nil
}
