/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package aspect

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/api/types/metrics"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/maps"
)

var (
	_ types.Component      = (*Metrics)(nil)
	_ prometheus.Collector = (*Metrics)(nil)
)

// Metrics counts the invocations of a proxy and exports them as Prometheus
// metrics labelled by proxy, method and result. Register it on a Prometheus
// registry to expose them:
//
//	m := aspect.NewMetrics(nil)
//	prometheus.MustRegister(m)
//
// Metrics 调用统计拦截器，同时是 Prometheus 采集器
type Metrics struct {
	// Namespace Prometheus 指标命名空间，默认 aop
	Namespace string `json:"namespace"`

	metrics  *metrics.InvocationMetrics
	total    *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the interceptor, m may be shared between interceptors.
func NewMetrics(m *metrics.InvocationMetrics) *Metrics {
	if m == nil {
		m = metrics.NewInvocationMetrics()
	}
	a := &Metrics{metrics: m}
	a.initCollectors()
	return a
}

func (a *Metrics) Order() int {
	return 20
}

// New creates an interceptor with its own counters.
func (a *Metrics) New() types.Component {
	m := &Metrics{Namespace: a.Namespace, metrics: metrics.NewInvocationMetrics()}
	m.initCollectors()
	return m
}

func (a *Metrics) Type() string {
	return "metrics"
}

func (a *Metrics) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, a); err != nil {
		return err
	}
	if a.metrics == nil {
		a.metrics = metrics.NewInvocationMetrics()
	}
	a.initCollectors()
	return nil
}

func (a *Metrics) initCollectors() {
	if a.Namespace == "" {
		a.Namespace = "aop"
	}
	a.total = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: a.Namespace,
		Name:      "invocations_total",
		Help:      "Number of proxied invocations.",
	}, []string{"proxy", "method", "result"})
	a.inFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: a.Namespace,
		Name:      "invocations_in_flight",
		Help:      "Number of proxied invocations in flight.",
	}, []string{"proxy"})
	a.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: a.Namespace,
		Name:      "invocation_duration_seconds",
		Help:      "Duration of proxied invocations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"proxy", "method"})
}

func (a *Metrics) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if a.total == nil {
		a.initCollectors()
	}
	if a.metrics == nil {
		a.metrics = metrics.NewInvocationMetrics()
	}
	proxyName, method := engine.NameOf(mi.Proxy()), mi.Method().String()
	start := time.Now()
	a.metrics.Begin()
	a.inFlight.WithLabelValues(proxyName).Inc()
	results, err := mi.Proceed()
	a.metrics.End(start, err)
	a.inFlight.WithLabelValues(proxyName).Dec()
	result := "success"
	if err != nil {
		result = "failure"
	}
	a.total.WithLabelValues(proxyName, method, result).Inc()
	a.duration.WithLabelValues(proxyName, method).Observe(time.Since(start).Seconds())
	return results, err
}

// GetMetrics 返回当前的指标
func (a *Metrics) GetMetrics() *metrics.InvocationMetrics {
	return a.metrics
}

func (a *Metrics) Describe(ch chan<- *prometheus.Desc) {
	a.total.Describe(ch)
	a.inFlight.Describe(ch)
	a.duration.Describe(ch)
}

func (a *Metrics) Collect(ch chan<- prometheus.Metric) {
	a.total.Collect(ch)
	a.inFlight.Collect(ch)
	a.duration.Collect(ch)
}
