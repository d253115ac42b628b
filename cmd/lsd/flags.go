// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the engine config file (yaml)",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "prometheus scrape endpoint listening address, empty to disable",
	}
	housekeepingIntervalFlag = cli.DurationFlag{
		Name:  "housekeeping-interval",
		Value: defaultHousekeepingInterval,
		Usage: "interval between housekeeping cycles",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 1,
		Usage: "log verbosity (0=warn, 1=info, 2=debug)",
	}
)
