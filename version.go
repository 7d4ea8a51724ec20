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

// Package bolt implements the core of a Bolt protocol client: version
// negotiation, chunked message framing, the request/response state machine,
// authentication, query streaming, transactions and typed server errors.
package bolt

import "fmt"

// Version identifies a Bolt protocol revision. The zero value means
// "not negotiated yet".
type Version struct {
	Major byte
	Minor byte
}

// Zero reports whether the version is uninitialized.
func (v Version) Zero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Compare orders versions by (major, minor).
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return int(v.Major) - int(o.Major)
	}
	return int(v.Minor) - int(o.Minor)
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor byte) bool {
	return v.Compare(Version{Major: major, Minor: minor}) >= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// encode renders the 4-byte wire form [minor, range, 0, major]. A non-zero
// minorRange proposes the contiguous band of minors ending at v.Minor.
func (v Version) encode(minorRange byte) [4]byte {
	return [4]byte{v.Minor, minorRange, 0, v.Major}
}

// parseVersion interprets a 4-byte wire version. Returns the zero Version
// when the major byte is zero.
func parseVersion(buf []byte) Version {
	if buf[3] == 0 {
		return Version{}
	}
	return Version{Major: buf[3], Minor: buf[0]}
}

// Capability identifies a protocol feature derived from the negotiated
// version.
type Capability uint16

const (
	CapTransactions Capability = 1 << iota
	CapBookmarks
	CapStreaming
	CapQueryID
	CapNotifications
	CapRouting
	CapReauth
	CapNotificationFiltering
	CapTelemetry
)

func (c Capability) String() string {
	switch c {
	case CapTransactions:
		return "transactions"
	case CapBookmarks:
		return "bookmarks"
	case CapStreaming:
		return "streaming"
	case CapQueryID:
		return "query_id"
	case CapNotifications:
		return "notifications"
	case CapRouting:
		return "routing"
	case CapReauth:
		return "reauth"
	case CapNotificationFiltering:
		return "notification_filtering"
	case CapTelemetry:
		return "telemetry"
	}
	return fmt.Sprintf("capability(%d)", uint16(c))
}

// Capabilities is the feature set of a negotiated version.
type Capabilities uint16

// Has reports whether all the given capabilities are present.
func (c Capabilities) Has(caps Capability) bool {
	return Capabilities(caps)&c == Capabilities(caps)
}

// capabilitiesOf derives the feature set of a version. The set grows
// monotonically with the version.
func capabilitiesOf(v Version) Capabilities {
	caps := Capabilities(CapTransactions | CapBookmarks)
	if v.AtLeast(4, 0) {
		caps |= Capabilities(CapStreaming | CapQueryID)
	}
	if v.AtLeast(4, 1) {
		caps |= Capabilities(CapNotifications)
	}
	if v.AtLeast(4, 3) {
		caps |= Capabilities(CapRouting)
	}
	if v.AtLeast(5, 1) {
		caps |= Capabilities(CapReauth)
	}
	if v.AtLeast(5, 2) {
		caps |= Capabilities(CapNotificationFiltering)
	}
	if v.AtLeast(5, 4) {
		caps |= Capabilities(CapTelemetry)
	}
	return caps
}
