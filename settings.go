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

package bolt

import "time"

const defaultUserAgent = "graphwire-bolt/1.0"
const defaultConnectionTimeoutMS = 5000

// Settings is the immutable configuration of a connection. Credentials are
// never mutated; once a version is negotiated the connection carries a
// derived copy with the version filled in.
type Settings struct {
	Username                        string            `toml:"username"`
	Password                        string            `toml:"password"`
	UserAgent                       string            `toml:"user_agent"`
	Database                        string            `toml:"database"`
	NotificationsMinSeverity        string            `toml:"notifications_minimum_severity"`
	NotificationsDisabledCategories []string          `toml:"notifications_disabled_categories"`
	ConnectionTimeoutMS             int               `toml:"connection_timeout_ms"`
	SocketTimeoutMS                 int               `toml:"socket_timeout_ms"` // 0 disables
	KeepAlive                       bool              `toml:"keep_alive"`
	RoutingContext                  map[string]string `toml:"routing_context"`

	version Version // negotiated, zero until the handshake completed
}

func (s Settings) withDefaults() Settings {
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.ConnectionTimeoutMS == 0 {
		s.ConnectionTimeoutMS = defaultConnectionTimeoutMS
	}
	return s
}

func (s Settings) withVersion(v Version) Settings {
	s.version = v
	return s
}

// token renders the basic-scheme authentication token.
func (s Settings) token() map[string]any {
	return map[string]any{
		"scheme":      "basic",
		"principal":   s.Username,
		"credentials": s.Password,
	}
}

func (s Settings) connectTimeout() time.Duration {
	return time.Duration(s.ConnectionTimeoutMS) * time.Millisecond
}

func (s Settings) socketTimeout() time.Duration {
	return time.Duration(s.SocketTimeoutMS) * time.Millisecond
}
