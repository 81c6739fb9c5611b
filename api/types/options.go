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

package types

import "time"

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithAdapterRegistry is an option that sets the advisor adapter registry of the Config.
func WithAdapterRegistry(registry AdvisorAdapterRegistry) Option {
	return func(c *Config) error {
		c.AdapterRegistry = registry
		return nil
	}
}

// WithChainFactory is an option that sets the advisor chain factory of the Config.
func WithChainFactory(factory AdvisorChainFactory) Option {
	return func(c *Config) error {
		c.ChainFactory = factory
		return nil
	}
}

// WithPool is an option that sets the goroutine pool of the Config.
func WithPool(pool Pool) Option {
	return func(c *Config) error {
		c.Pool = pool
		return nil
	}
}

// WithCache is an option that sets the default cache of the Config.
func WithCache(cache Cache) Option {
	return func(c *Config) error {
		c.Cache = cache
		return nil
	}
}

// WithScriptMaxExecutionTime is an option that sets the script max execution time of the Config.
func WithScriptMaxExecutionTime(d time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = d
		return nil
	}
}

// WithOnDebug is an option that sets the debug callback of the Config.
func WithOnDebug(onDebug func(proxyName string, flowType string, method *Method, args []interface{}, results []interface{}, err error)) Option {
	return func(c *Config) error {
		c.OnDebug = onDebug
		return nil
	}
}
