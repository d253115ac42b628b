// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "go.uber.org/zap"

var logger = zap.NewNop()

// SetLogger replaces the package logger. Pass a configured logger from
// the host process; the default discards everything.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l.Named("staking")
	}
}
