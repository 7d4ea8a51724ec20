/*
 * Copyright (c) "Graphwire"
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log defines the logging abstraction used throughout the client.
package log

// Component names used as the first argument to Logger calls.
// The id argument identifies the instance, for connections it takes the
// form "bolt-123@host:port" once the server has assigned a connection id.
const (
	Connection = "connection"
	Dialer     = "dialer"
)

// Logger is used throughout the client for logging purposes.
// Clients can implement this interface and provide an implementation
// upon connection creation.
type Logger interface {
	Error(name string, id string, err error)
	Errorf(name string, id string, msg string, args ...any)
	Warnf(name string, id string, msg string, args ...any)
	Infof(name string, id string, msg string, args ...any)
	Debugf(name string, id string, msg string, args ...any)
}

// Void is a Logger that discards everything.
type Void struct{}

func (v Void) Error(string, string, error)        {}
func (v Void) Errorf(string, string, string, ...any) {}
func (v Void) Warnf(string, string, string, ...any)  {}
func (v Void) Infof(string, string, string, ...any)  {}
func (v Void) Debugf(string, string, string, ...any) {}
