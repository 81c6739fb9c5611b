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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/api/types/metrics"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/test/assert"
)

func TestMetrics(t *testing.T) {
	shared := metrics.NewInvocationMetrics()
	m := NewMetrics(shared)
	assert.Equal(t, "metrics", m.Type())
	p, _ := newPerson(t, m)
	_, err := p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	_, err = p.Invoke(ctx, "SetAge", 20)
	assert.Nil(t, err)
	_, err = p.Invoke(ctx, "Fail", "x")
	assert.NotNil(t, err)

	snapshot := m.GetMetrics().Get()
	assert.True(t, m.GetMetrics() == shared)
	assert.Equal(t, int64(3), snapshot.Total)
	assert.Equal(t, int64(2), snapshot.Success)
	assert.Equal(t, int64(1), snapshot.Failed)
	assert.Equal(t, int64(0), snapshot.Current)
	assert.True(t, shared.AverageLatency() >= time.Duration(0))

	registry := prometheus.NewRegistry()
	assert.Nil(t, registry.Register(m))
	families, err := registry.Gather()
	assert.Nil(t, err)
	found := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if family.GetName() == "aop_invocations_total" {
				labels := map[string]string{}
				for _, label := range metric.GetLabel() {
					labels[label.GetName()] = label.GetValue()
				}
				found[labels["method"]+"/"+labels["result"]] = metric.GetCounter().GetValue()
				assert.Equal(t, "person", labels["proxy"])
			}
		}
	}
	assert.Equal(t, map[string]float64{
		"test.Person.GetName/success": 1,
		"test.Person.SetAge/success":  1,
		"test.Person.Fail/failure":    1,
	}, found)
}

func TestMetricsNew(t *testing.T) {
	m := (&Metrics{}).New().(*Metrics)
	assert.Nil(t, m.Init(engine.NewConfig(), types.Configuration{"namespace": "orders"}))
	assert.Equal(t, "orders", m.Namespace)
	p, _ := newPerson(t, m)
	_, err := p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	assert.Equal(t, int64(1), m.GetMetrics().Get().Success)

	registry := prometheus.NewRegistry()
	assert.Nil(t, registry.Register(m))
	families, err := registry.Gather()
	assert.Nil(t, err)
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["orders_invocations_total"])
	assert.True(t, names["orders_invocation_duration_seconds"])
	assert.True(t, names["orders_invocations_in_flight"])
}
