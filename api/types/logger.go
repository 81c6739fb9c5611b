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

import (
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the module.
type Logger interface {
	Printf(format string, v ...interface{})
}

// compile time checks: both the standard logger and logrus satisfy Logger.
var (
	_ Logger = &log.Logger{}
	_ Logger = &logrus.Logger{}
	_ Logger = &logrus.Entry{}
)

// DefaultLogger returns a text formatted logrus logger writing to stdout.
func DefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// NewLogger returns custom, or the default logger if custom is nil.
func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}
	return DefaultLogger()
}
