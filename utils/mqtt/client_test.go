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
package mqtt

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test/assert"
)

func TestTopic(t *testing.T) {
	event := types.InvocationEvent{Proxy: "person", Method: "test.Person.SetAge"}
	assert.Equal(t, "aop/trace/person/test.Person.SetAge", Topic(DefaultTopicPrefix, event))
	assert.Equal(t, "p/_/a_b", Topic("p/", types.InvocationEvent{Method: "a/b"}))
	assert.Equal(t, "p/x_y_/m", Topic("p", types.InvocationEvent{Proxy: "x+y#", Method: "m"}))
}

func TestClientOptions(t *testing.T) {
	conf := Config{Server: "tcp://127.0.0.1:1883"}
	opts, err := clientOptions(&conf)
	assert.Nil(t, err)
	assert.NotNil(t, opts)
	assert.True(t, strings.HasPrefix(conf.ClientID, "aop/"))
	assert.Equal(t, DefaultTopicPrefix, conf.TopicPrefix)
	assert.Equal(t, time.Minute, conf.MaxReconnectInterval)

	conf = Config{Server: "tcp://127.0.0.1:1883", CAFile: "not_exist.pem"}
	_, err = clientOptions(&conf)
	assert.NotNil(t, err)
}

// TestPublish requires a broker, set MQTT_SERVER to run it.
func TestPublish(t *testing.T) {
	server := os.Getenv("MQTT_SERVER")
	if server == "" {
		t.Skip("MQTT_SERVER not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	client, err := NewClient(ctx, Config{Server: server, TopicPrefix: "aop/test"})
	assert.Nil(t, err)
	defer client.Close()

	received := make(chan string, 1)
	assert.Nil(t, client.Subscribe(func(topic string, payload []byte) {
		received <- topic
	}))
	assert.Nil(t, client.Publish(types.InvocationEvent{Proxy: "p", Method: "m"}))
	select {
	case topic := <-received:
		assert.Equal(t, "aop/test/p/m", topic)
	case <-time.After(time.Second * 3):
		t.Fatal("no message received")
	}
}
