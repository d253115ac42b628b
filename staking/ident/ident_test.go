// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ident

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.False(t, Valid(""))
	assert.True(t, Valid("0x1234"))
	assert.True(t, Valid(strings.Repeat("a", MaxLen)))
	assert.False(t, Valid(strings.Repeat("a", MaxLen+1)))
}

func TestNew(t *testing.T) {
	now := time.Unix(1700000000, 0)

	id := New("pool", now, "mainnet", "0xoperator")
	assert.True(t, strings.HasPrefix(id, "pool_mainnet_0xoperator_"))
	assert.True(t, Valid(id))

	// long seeds are truncated, result stays within bounds
	long := New("pos", now, strings.Repeat("x", 200), strings.Repeat("y", 200))
	assert.True(t, Valid(long))
}

// Collisions are made improbable by the time and random components, but
// they are not cryptographically prevented.
func TestNew_Uniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for n := 0; n < 1000; n++ {
		id := New("deriv", now, "staker", "pool")
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}
