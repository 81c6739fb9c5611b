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

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rulego/aop"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/builtin/aspect"
	"github.com/rulego/aop/endpoint/console"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/pool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultGreeterDef is used when --def is not given.
const defaultGreeterDef = `{
  "name": "greeter",
  "flags": {"exposeProxy": true},
  "advisors": [
    {"type": "exposeInvocation"},
    {"type": "validator", "methods": ["Greet"], "configuration": {"args": {"Greet": ["required,max=32"]}}},
    {"type": "concurrencyThrottle", "configuration": {"max": 64, "block": true}},
    {"type": "timeout", "methods": ["Greet"], "configuration": {"timeout": "2s"}},
    {"type": "debug", "configuration": {"log": false}}
  ]
}`

type serveOptions struct {
	addr           string
	maxConnections int
	workers        int
	defFile        string
	advisorFiles   string
	logLevel       string
	dbDriver       string
	dsn            string
	mqttServer     string
	mqttPrefix     string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the proxy console",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := app.console.Start(); err != nil {
				app.close()
				return err
			}
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			<-sigs
			app.close()
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", ":9090", "console listen address")
	flags.IntVar(&opts.maxConnections, "max-connections", 256, "maximum concurrent console connections, <=0 unlimited")
	flags.IntVar(&opts.workers, "workers", 64, "async interceptor workers")
	flags.StringVar(&opts.defFile, "def", "", "JSON proxy definition of the greeter service")
	flags.StringVar(&opts.advisorFiles, "advisors", "", "JSON advisor definition files appended to the greeter advisors, e.g. ./advisors/*.json")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flags.StringVar(&opts.dbDriver, "db-driver", "", "ledger database driver: mysql or postgres, empty disables the ledger")
	flags.StringVar(&opts.dsn, "dsn", "", "ledger data source name")
	flags.StringVar(&opts.mqttServer, "mqtt-server", "", "MQTT broker receiving invocation events, e.g. tcp://127.0.0.1:1883")
	flags.StringVar(&opts.mqttPrefix, "mqtt-topic-prefix", "aop/trace", "MQTT topic prefix")
	return cmd
}

type app struct {
	config   types.Config
	console  *console.Console
	pool     *engine.Pool
	workers  *pool.WorkerPool
	metrics  *aspect.Metrics
	registry *prometheus.Registry
	logger   *logrus.Logger
}

func newApp(opts *serveOptions) (*app, error) {
	logger := types.DefaultLogger()
	if opts.logLevel != "" {
		level, err := logrus.ParseLevel(opts.logLevel)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}
	a := &app{
		pool:     engine.DefaultPool,
		workers:  pool.NewWorkerPool(opts.workers),
		metrics:  aspect.NewMetrics(nil),
		registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	a.config = engine.NewConfig(
		types.WithLogger(logger),
		types.WithPool(a.workers),
		types.WithOnDebug(func(proxyName, flowType string, method *types.Method, args, results []interface{}, err error) {
			logger.WithFields(logrus.Fields{"proxy": proxyName, "flow": flowType, "method": method.String()}).Debug(args, results, err)
		}),
	)
	if err := a.registry.Register(a.metrics); err != nil {
		a.workers.Release()
		return nil, err
	}
	c, err := console.New(a.config, types.Configuration{"server": opts.addr, "maxConnections": opts.maxConnections})
	if err != nil {
		a.workers.Release()
		return nil, err
	}
	c.Pool = a.pool
	c.Registry = aop.Registry
	c.Gatherer = a.registry
	a.console = c

	if err := a.loadGreeter(opts); err != nil {
		a.close()
		return nil, err
	}
	if opts.dbDriver != "" {
		if err := a.loadLedger(opts); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

// common returns the advice shared by every demo proxy: metrics, the console
// trace stream and, if configured, the MQTT trace.
func (a *app) common(opts *serveOptions) ([]engine.ProxyOption, error) {
	options := []engine.ProxyOption{
		engine.WithAdvice(a.metrics, aspect.NewTrace(a.console.Hub(), true)),
	}
	if opts.mqttServer != "" {
		mqttTrace, err := aop.NewAdvisor(a.config, aop.AdvisorDef{
			Type: "trace",
			Configuration: types.Configuration{
				"server":         opts.mqttServer,
				"topicPrefix":    opts.mqttPrefix,
				"connectTimeout": "5s",
			},
		})
		if err != nil {
			return nil, err
		}
		options = append(options, engine.WithAdvisors(mqttTrace))
	}
	return options, nil
}

func (a *app) loadGreeter(opts *serveOptions) error {
	def := []byte(defaultGreeterDef)
	if opts.defFile != "" {
		b, err := os.ReadFile(opts.defFile)
		if err != nil {
			return errors.Wrap(err, "read proxy definition")
		}
		def = b
	}
	proxyDef, err := aop.ParseProxyDef(def)
	if err != nil {
		return err
	}
	if proxyDef.Name == "" {
		proxyDef.Name = "greeter"
	}
	if opts.advisorFiles != "" {
		extra, err := aop.LoadAdvisorDefFiles(opts.advisorFiles)
		if err != nil {
			return err
		}
		proxyDef.Advisors = append(proxyDef.Advisors, extra...)
	}
	options, err := a.common(opts)
	if err != nil {
		return err
	}
	options = append(options,
		engine.WithTarget(&greeter{}),
		engine.WithInterfaces(types.InterfaceOf[Greeter]()),
	)
	_, err = aop.NewFromDef(a.config, proxyDef, options...)
	return err
}

func (a *app) loadLedger(opts *serveOptions) error {
	options, err := a.common(opts)
	if err != nil {
		return err
	}
	def := aop.ProxyDef{
		Name: "ledger",
		Advisors: []aop.AdvisorDef{
			{Type: "retry", Configuration: types.Configuration{"maxAttempts": 2, "interval": "100ms"}},
			{Type: "transaction", Configuration: types.Configuration{"driverName": opts.dbDriver, "dsn": opts.dsn}},
		},
	}
	options = append(options,
		engine.WithTarget(&ledger{postgres: opts.dbDriver == "postgres"}),
		engine.WithInterfaces(types.InterfaceOf[Ledger]()),
	)
	_, err = aop.NewFromDef(a.config, def, options...)
	return err
}

func (a *app) close() {
	if err := a.console.Close(); err != nil {
		a.logger.Printf("close console err=%v", err)
	}
	a.pool.Range(func(key, value any) bool {
		named := value.(*engine.NamedProxy)
		for _, adv := range named.Advised().GetAdvisors() {
			if d, ok := adv.Advice().(types.Disposable); ok {
				if err := d.Destroy(); err != nil {
					a.logger.Printf("destroy advice of proxy %s err=%v", named.Name(), err)
				}
			}
		}
		return true
	})
	a.pool.Stop()
	done := make(chan struct{})
	go func() {
		a.workers.Release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
