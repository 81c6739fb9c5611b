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
// Package mqtt publishes invocation trace events to an MQTT broker.
//
// The publisher is used by the trace interceptor: every proxied call produces a
// types.InvocationEvent which is published, as JSON, on <TopicPrefix>/<proxy>/<method>.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofrs/uuid/v5"
	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

// DefaultTopicPrefix 默认主题前缀
const DefaultTopicPrefix = "aop/trace"

// Config 客户端配置
type Config struct {
	//mqtt broker 地址，例如：tcp://127.0.0.1:1883
	Server   string
	Username string
	Password string
	//重连重试间隔
	MaxReconnectInterval time.Duration
	QOS                  uint8
	CleanSession         bool
	//client Id，为空则随机生成
	ClientID string
	//TopicPrefix 发布主题前缀
	TopicPrefix string
	CAFile      string
	CertFile    string
	CertKeyFile string
}

// Client is an MQTT client publishing invocation events.
// Client 调用事件 MQTT 发布客户端
type Client struct {
	client paho.Client
	conf   Config
}

var _ types.Publisher = (*Client)(nil)

// NewClient connects to the broker, retrying every 2 seconds until ctx is done.
// NewClient 创建一个MQTT客户端实例
func NewClient(ctx context.Context, conf Config) (*Client, error) {
	opts, err := clientOptions(&conf)
	if err != nil {
		return nil, err
	}
	c := &Client{client: paho.NewClient(opts), conf: conf}
	for {
		token := c.client.Connect()
		if token.Wait() && token.Error() == nil {
			return c, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(token.Error(), "connect mqtt broker %s", conf.Server)
		case <-time.After(2 * time.Second):
		}
	}
}

func clientOptions(conf *Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	if conf.ClientID == "" {
		conf.ClientID = "aop/" + uuid.Must(uuid.NewV4()).String()[:8]
	}
	opts.SetClientID(conf.ClientID)
	if conf.MaxReconnectInterval <= 0 {
		conf.MaxReconnectInterval = time.Minute
	}
	opts.SetMaxReconnectInterval(conf.MaxReconnectInterval)
	if conf.TopicPrefix == "" {
		conf.TopicPrefix = DefaultTopicPrefix
	}
	tlsConfig, err := newTLSConfig(conf.CAFile, conf.CertFile, conf.CertKeyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "load mqtt certificate files,ca_cert=%s,tls_cert=%s,tls_key=%s", conf.CAFile, conf.CertFile, conf.CertKeyFile)
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}
	return opts, nil
}

// Topic returns the topic an event is published on.
func (c *Client) Topic(event types.InvocationEvent) string {
	return Topic(c.conf.TopicPrefix, event)
}

// Topic joins prefix, proxy and method name. MQTT wildcard characters in the
// names are replaced by "_".
func Topic(prefix string, event types.InvocationEvent) string {
	r := strings.NewReplacer("+", "_", "#", "_", "/", "_")
	proxy := event.Proxy
	if proxy == "" {
		proxy = "_"
	}
	return strings.TrimSuffix(prefix, "/") + "/" + r.Replace(proxy) + "/" + r.Replace(event.Method)
}

// Publish publishes the event as JSON.
func (c *Client) Publish(event types.InvocationEvent) error {
	token := c.client.Publish(c.Topic(event), c.conf.QOS, false, event.Bytes())
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Subscribe registers handler for events published under the prefix.
func (c *Client) Subscribe(handler func(topic string, payload []byte)) error {
	topic := strings.TrimSuffix(c.conf.TopicPrefix, "/") + "/#"
	token := c.client.Subscribe(topic, c.conf.QOS, func(_ paho.Client, m paho.Message) {
		handler(m.Topic(), m.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (c *Client) Close() error {
	c.client.Disconnect(500)
	return nil
}

func newTLSConfig(caFile, certFile, certKeyFile string) (*tls.Config, error) {
	if caFile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}
	tlsConfig := &tls.Config{}
	if caFile != "" {
		caCert, err := os.ReadFile(caFile)
		if err != nil {
			return nil, err
		}
		certPool := x509.NewCertPool()
		certPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = certPool
	}
	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}
	return tlsConfig, nil
}
