// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

type noop struct{}

func (noop) CounterMeter(string) Counter                 { return noopMeter{} }
func (noop) CounterVecMeter(string, []string) CounterVec { return noopMeter{} }
func (noop) GaugeMeter(string) Gauge                     { return noopMeter{} }
func (noop) GaugeVecMeter(string, []string) GaugeVec     { return noopMeter{} }
func (noop) HistogramMeter(string, []int64) Histogram    { return noopMeter{} }
func (noop) Handler() http.Handler                       { return nil }

type noopMeter struct{}

func (noopMeter) Add(int64)                             {}
func (noopMeter) Set(int64)                             {}
func (noopMeter) Observe(int64)                         {}
func (noopMeter) AddWithLabel(int64, map[string]string) {}
func (noopMeter) SetWithLabel(int64, map[string]string) {}
