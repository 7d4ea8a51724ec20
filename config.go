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

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Recognized notification severities, matching what servers accept.
var validSeverities = map[string]bool{
	"":            true,
	"OFF":         true,
	"WARNING":     true,
	"INFORMATION": true,
}

// LoadSettings reads connection settings from a TOML file and applies
// defaults. Unknown keys are rejected to catch typos early.
func LoadSettings(path string) (Settings, error) {
	var settings Settings
	meta, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return Settings{}, fmt.Errorf("could not load settings from %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("unrecognized settings key %q in %s", undecoded[0].String(), path)
	}
	settings = settings.withDefaults()
	if err := validateSettings(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func validateSettings(settings Settings) error {
	if !validSeverities[settings.NotificationsMinSeverity] {
		return fmt.Errorf("invalid notifications_minimum_severity %q", settings.NotificationsMinSeverity)
	}
	if settings.ConnectionTimeoutMS < 0 {
		return fmt.Errorf("connection_timeout_ms must not be negative")
	}
	if settings.SocketTimeoutMS < 0 {
		return fmt.Errorf("socket_timeout_ms must not be negative")
	}
	return nil
}
