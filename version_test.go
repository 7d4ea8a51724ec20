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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOrdering(t *testing.T) {
	assert.Positive(t, Version{5, 0}.Compare(Version{4, 4}))
	assert.Negative(t, Version{4, 3}.Compare(Version{4, 4}))
	assert.Zero(t, Version{4, 4}.Compare(Version{4, 4}))
	assert.True(t, Version{5, 1}.AtLeast(4, 4))
	assert.True(t, Version{5, 1}.AtLeast(5, 1))
	assert.False(t, Version{5, 1}.AtLeast(5, 2))
}

func TestVersionEncodeParseRoundTrip(t *testing.T) {
	for _, v := range []Version{{3, 0}, {4, 1}, {4, 4}, {5, 0}, {5, 6}} {
		encoded := v.encode(0)
		parsed := parseVersion(encoded[:])
		require.Equal(t, v, parsed)
	}
}

func TestVersionParseRejectsZeroMajor(t *testing.T) {
	parsed := parseVersion([]byte{0, 0, 0, 0})
	assert.True(t, parsed.Zero())
}

func TestVersionWireForm(t *testing.T) {
	encoded := Version{Major: 5, Minor: 6}.encode(6)
	assert.Equal(t, [4]byte{6, 6, 0, 5}, encoded)
}

// Capability sets only ever grow with the version.
func TestCapabilitiesMonotone(t *testing.T) {
	ordered := []Version{
		{3, 0}, {4, 0}, {4, 1}, {4, 2}, {4, 3}, {4, 4},
		{5, 0}, {5, 1}, {5, 2}, {5, 3}, {5, 4}, {5, 5}, {5, 6},
	}
	for i := 1; i < len(ordered); i++ {
		prev := capabilitiesOf(ordered[i-1])
		curr := capabilitiesOf(ordered[i])
		assert.Equal(t, prev, prev&curr,
			"capabilities of %s lost something %s had", ordered[i], ordered[i-1])
	}
}

func TestCapabilitiesTable(t *testing.T) {
	caps30 := capabilitiesOf(Version{3, 0})
	assert.True(t, caps30.Has(CapTransactions))
	assert.True(t, caps30.Has(CapBookmarks))
	assert.False(t, caps30.Has(CapStreaming))
	assert.False(t, caps30.Has(CapRouting))

	caps43 := capabilitiesOf(Version{4, 3})
	assert.True(t, caps43.Has(CapStreaming))
	assert.True(t, caps43.Has(CapQueryID))
	assert.True(t, caps43.Has(CapNotifications))
	assert.True(t, caps43.Has(CapRouting))
	assert.False(t, caps43.Has(CapReauth))

	caps54 := capabilitiesOf(Version{5, 4})
	assert.True(t, caps54.Has(CapTelemetry))
	assert.True(t, caps54.Has(CapRouting))
	assert.True(t, caps54.Has(CapReauth))
	assert.True(t, caps54.Has(CapNotificationFiltering))

	caps51 := capabilitiesOf(Version{5, 1})
	assert.True(t, caps51.Has(CapReauth))
	assert.False(t, caps51.Has(CapNotificationFiltering))
	assert.False(t, caps51.Has(CapTelemetry))
}
