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
	"context"
	"fmt"

	"github.com/graphwire/bolt/internal/racing"
	"github.com/graphwire/bolt/log"
)

// proposal is one version slot of the handshake: the band of minors
// [minor-back, minor] for a major.
type proposal struct {
	major byte
	minor byte
	back  byte
}

// Supported versions in priority order. Empty slots are zero filled.
var proposals = [4]proposal{
	{major: 5, minor: 6, back: 6},
	{major: 4, minor: 4, back: 2},
	{major: 4, minor: 1, back: 1},
	{major: 3, minor: 0},
}

// covers reports whether m falls inside the proposal's minor band.
func (p proposal) covers(major, m byte) bool {
	return p.major == major && p.minor >= m && m >= p.minor-p.back
}

// The manifest reply carries 0xFF in the major slot, impossible for a
// real version; the minor slot selects the manifest style.
const manifestMarker = 0xff

// handshakeRequest renders the magic preamble followed by the four
// version proposals, 20 bytes in total.
func handshakeRequest() []byte {
	request := []byte{0x60, 0x60, 0xb0, 0x17}
	for _, p := range proposals {
		v := Version{Major: p.major, Minor: p.minor}.encode(p.back)
		request = append(request, v[:]...)
	}
	return request
}

// handshake negotiates a protocol version over the raw byte stream. The
// server answers either with a single version (legacy) or with a manifest
// of offerings the client picks from and confirms.
func handshake(ctx context.Context, wr racing.Writer, rd racing.Reader, wireLog log.WireLogger) (Version, error) {
	request := handshakeRequest()
	if wireLog != nil {
		wireLog.LogClientMessage("", "<MAGIC> %#010X", request[0:4])
		wireLog.LogClientMessage("", "<HANDSHAKE> %#010X %#010X %#010X %#010X", request[4:8], request[8:12], request[12:16], request[16:20])
	}
	if _, err := wr.Write(ctx, request); err != nil {
		return Version{}, wrapConnectionError("handshake send failed", err)
	}

	reply := make([]byte, 4)
	if _, err := rd.ReadFull(ctx, reply); err != nil {
		return Version{}, wrapConnectionError("handshake receive failed", err)
	}
	if wireLog != nil {
		wireLog.LogServerMessage("", "<HANDSHAKE> %#010X", reply)
	}

	if reply[3] == manifestMarker {
		return negotiateManifest(ctx, wr, rd, int(reply[0]))
	}

	if reply[3] == 'P' && reply[0] == 'H' {
		// Server answered with an HTTP response
		return Version{}, &ConnectionError{Msg: "server responded HTTP; make sure the Bolt port is used, not the HTTP endpoint"}
	}

	version := parseVersion(reply)
	if version.Zero() {
		return Version{}, &ConnectionError{Msg: "Server rejected all protocol versions"}
	}
	return version, nil
}

// negotiateManifest drives the manifest-style negotiation: a varint count,
// that many 4-byte offerings and a capability mask the client currently
// ignores. The client confirms its pick with a 4-byte version, or four zero
// bytes when nothing overlaps.
func negotiateManifest(ctx context.Context, wr racing.Writer, rd racing.Reader, style int) (Version, error) {
	if style != 1 {
		return Version{}, &ProtocolError{Msg: fmt.Sprintf("unsupported handshake manifest style %d", style)}
	}

	count, err := readVarint(ctx, rd)
	if err != nil {
		return Version{}, wrapConnectionError("handshake manifest receive failed", err)
	}
	offerings := make([]proposal, count)
	buf := make([]byte, 4)
	for i := range offerings {
		if _, err := rd.ReadFull(ctx, buf); err != nil {
			return Version{}, wrapConnectionError("handshake manifest receive failed", err)
		}
		offerings[i] = proposal{major: buf[3], minor: buf[0], back: buf[1]}
	}
	// Capability mask, consumed and ignored for now
	if _, err := readVarint(ctx, rd); err != nil {
		return Version{}, wrapConnectionError("handshake manifest receive failed", err)
	}

	chosen, ok := selectVersion(offerings)
	confirm := chosen.encode(0)
	if !ok {
		confirm = [4]byte{}
	}
	if _, err := wr.Write(ctx, confirm[:]); err != nil {
		return Version{}, wrapConnectionError("handshake confirmation send failed", err)
	}
	if !ok {
		return Version{}, &ConnectionError{Msg: "No mutually supported Bolt version found"}
	}
	return chosen, nil
}

// selectVersion picks the highest version present in both the client's
// proposal list and the server's offerings. Client proposals are walked
// highest first, minors from high to low within each band.
func selectVersion(offerings []proposal) (Version, bool) {
	for _, p := range proposals {
		if p.major == 0 {
			continue
		}
		for m := p.minor; ; m-- {
			for _, o := range offerings {
				if o.covers(p.major, m) {
					return Version{Major: p.major, Minor: m}, true
				}
			}
			if m == p.minor-p.back || m == 0 {
				break
			}
		}
	}
	return Version{}, false
}

// readVarint reads an unsigned LEB128 integer byte by byte.
func readVarint(ctx context.Context, rd racing.Reader) (uint64, error) {
	var value uint64
	var shift uint
	buf := make([]byte, 1)
	for {
		if _, err := rd.ReadFull(ctx, buf); err != nil {
			return 0, err
		}
		value |= uint64(buf[0]&0x7f) << shift
		if buf[0]&0x80 == 0 {
			return value, nil
		}
		shift += 7
		if shift > 63 {
			return 0, &ProtocolError{Msg: "handshake varint overflow"}
		}
	}
}
