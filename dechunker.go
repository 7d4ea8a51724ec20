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
	"encoding/binary"
	"time"

	"github.com/graphwire/bolt/internal/racing"
)

// dechunkMessage reads one complete message off the wire: a sequence of
// (u16 length, payload) chunks up to and including the zero-length
// terminator. Chunk boundaries carry no meaning, payloads are concatenated
// into buf. Zero-length chunks before any payload are server keep-alives
// and are skipped. Partial socket reads are absorbed by ReadFull.
//
// A non-zero readTimeout bounds each socket read; expiry surfaces as a
// context deadline error and breaks the connection.
func dechunkMessage(ctx context.Context, rd racing.Reader, buf []byte, readTimeout time.Duration) ([]byte, error) {
	buf = buf[:0]
	sizeBuf := make([]byte, 2)
	for {
		if err := timedReadFull(ctx, rd, sizeBuf, readTimeout); err != nil {
			return buf, wrapConnectionError("receive failed", err)
		}
		size := int(binary.BigEndian.Uint16(sizeBuf))
		if size == 0 {
			if len(buf) > 0 {
				// Terminator, message complete
				return buf, nil
			}
			// Keep-alive chunk between messages
			continue
		}

		off := len(buf)
		if cap(buf) < off+size {
			grown := make([]byte, off, off+size)
			copy(grown, buf)
			buf = grown
		}
		buf = buf[:off+size]
		if err := timedReadFull(ctx, rd, buf[off:], readTimeout); err != nil {
			return buf, wrapConnectionError("receive failed", err)
		}
	}
}

func timedReadFull(ctx context.Context, rd racing.Reader, buf []byte, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	_, err := rd.ReadFull(ctx, buf)
	return err
}
