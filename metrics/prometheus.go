// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lsd"

// InitializePrometheusMetrics switches the active backend to Prometheus.
// Once switched it cannot be reset, so meters stay registered.
func InitializePrometheusMetrics() {
	if _, ok := backend.(*promBackend); !ok {
		backend = &promBackend{}
	}
}

type promBackend struct {
	mu     sync.Mutex
	meters map[string]any
}

func (b *promBackend) getOrCreate(name string, create func() any) any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.meters == nil {
		b.meters = make(map[string]any)
	}
	if m, ok := b.meters[name]; ok {
		return m
	}
	m := create()
	b.meters[name] = m
	return m
}

func (b *promBackend) CounterMeter(name string) Counter {
	return b.getOrCreate(name, func() any {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		prometheus.MustRegister(c)
		return &promCounter{c}
	}).(Counter)
}

func (b *promBackend) CounterVecMeter(name string, labels []string) CounterVec {
	return b.getOrCreate(name, func() any {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		prometheus.MustRegister(c)
		return &promCounterVec{c}
	}).(CounterVec)
}

func (b *promBackend) GaugeMeter(name string) Gauge {
	return b.getOrCreate(name, func() any {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		prometheus.MustRegister(g)
		return &promGauge{g}
	}).(Gauge)
}

func (b *promBackend) GaugeVecMeter(name string, labels []string) GaugeVec {
	return b.getOrCreate(name, func() any {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		prometheus.MustRegister(g)
		return &promGaugeVec{g}
	}).(GaugeVec)
}

func (b *promBackend) HistogramMeter(name string, buckets []int64) Histogram {
	return b.getOrCreate(name, func() any {
		fb := make([]float64, 0, len(buckets))
		for _, v := range buckets {
			fb = append(fb, float64(v))
		}
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: fb})
		prometheus.MustRegister(h)
		return &promHistogram{h}
	}).(Histogram)
}

func (b *promBackend) Handler() http.Handler { return promhttp.Handler() }

type promCounter struct{ c prometheus.Counter }

func (p *promCounter) Add(v int64) { p.c.Add(float64(v)) }

type promCounterVec struct{ c *prometheus.CounterVec }

func (p *promCounterVec) AddWithLabel(v int64, labels map[string]string) {
	p.c.With(labels).Add(float64(v))
}

type promGauge struct{ g prometheus.Gauge }

func (p *promGauge) Add(v int64) { p.g.Add(float64(v)) }
func (p *promGauge) Set(v int64) { p.g.Set(float64(v)) }

type promGaugeVec struct{ g *prometheus.GaugeVec }

func (p *promGaugeVec) AddWithLabel(v int64, labels map[string]string) {
	p.g.With(labels).Add(float64(v))
}

func (p *promGaugeVec) SetWithLabel(v int64, labels map[string]string) {
	p.g.With(labels).Set(float64(v))
}

type promHistogram struct{ h prometheus.Histogram }

func (p *promHistogram) Observe(v int64) { p.h.Observe(float64(v)) }
