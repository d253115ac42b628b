// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ident validates caller-supplied identifiers and generates
// likely-unique ones for engine-owned records.
package ident

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxLen bounds the length of any identifier accepted or produced by the engine.
const MaxLen = 128

// Valid reports whether id is acceptable as an identifier: non-empty
// and within MaxLen.
func Valid(id string) bool {
	return id != "" && len(id) <= MaxLen
}

// New builds an identifier from a prefix, caller-supplied seeds, the
// current time and a random component. Uniqueness holds by construction;
// the result is NOT unpredictable and must not be used as a secret.
func New(prefix string, now time.Time, seeds ...string) string {
	parts := make([]string, 0, len(seeds)+3)
	parts = append(parts, prefix)
	for _, s := range seeds {
		if len(s) > 16 {
			s = s[:16]
		}
		parts = append(parts, s)
	}
	parts = append(parts,
		fmt.Sprintf("%x", now.UnixNano()),
		uuid.NewString()[:8],
	)

	id := strings.Join(parts, "_")
	if len(id) > MaxLen {
		id = id[:MaxLen]
	}
	return id
}
