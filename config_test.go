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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bolt.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeSettingsFile(t, `
username = "neo4j"
password = "secret"
database = "movies"
notifications_minimum_severity = "WARNING"
notifications_disabled_categories = ["HINT", "UNRECOGNIZED"]
connection_timeout_ms = 2500
socket_timeout_ms = 30000
keep_alive = true
`)
	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "neo4j", settings.Username)
	assert.Equal(t, "secret", settings.Password)
	assert.Equal(t, "movies", settings.Database)
	assert.Equal(t, "WARNING", settings.NotificationsMinSeverity)
	assert.Equal(t, []string{"HINT", "UNRECOGNIZED"}, settings.NotificationsDisabledCategories)
	assert.Equal(t, 2500, settings.ConnectionTimeoutMS)
	assert.Equal(t, 30000, settings.SocketTimeoutMS)
	assert.True(t, settings.KeepAlive)
	// Defaults applied
	assert.Equal(t, defaultUserAgent, settings.UserAgent)
}

func TestLoadSettingsDefaults(t *testing.T) {
	path := writeSettingsFile(t, `
username = "neo4j"
password = "secret"
`)
	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConnectionTimeoutMS, settings.ConnectionTimeoutMS)
	assert.Zero(t, settings.SocketTimeoutMS)
	assert.False(t, settings.KeepAlive)
}

func TestLoadSettingsRejectsUnknownKey(t *testing.T) {
	path := writeSettingsFile(t, `
username = "neo4j"
passwrod = "typo"
`)
	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwrod")
}

func TestLoadSettingsRejectsBadSeverity(t *testing.T) {
	path := writeSettingsFile(t, `
notifications_minimum_severity = "LOUD"
`)
	_, err := LoadSettings(path)
	require.Error(t, err)
}

func TestSettingsToken(t *testing.T) {
	token := Settings{Username: "u", Password: "p"}.token()
	assert.Equal(t, map[string]any{"scheme": "basic", "principal": "u", "credentials": "p"}, token)
}
