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

	"github.com/graphwire/bolt/internal/racing"
)

const maxChunkSize = 0xffff

// chunker splits encoded messages into chunks of at most 65535 payload
// bytes, each prefixed with a big-endian u16 length and every message
// followed by a zero-length terminator chunk. Several messages can be
// buffered before sending.
type chunker struct {
	chunks [][]byte
}

func newChunker() *chunker {
	return &chunker{chunks: make([][]byte, 0, 2)}
}

func (c *chunker) beginMessage() {
	c.chunk()
}

func (c *chunker) chunk() {
	// First two bytes are reserved for the size, patched at send time.
	chunk := make([]byte, 0, 0x100)
	chunk = append(chunk, 0x00, 0x00)
	c.chunks = append(c.chunks, chunk)
}

func (c *chunker) endMessage() {
	c.chunks = append(c.chunks, []byte{0x00, 0x00})
}

// Write appends to the current chunk, spilling over into new chunks as the
// payload limit is reached. The packer writes message bytes through here.
func (c *chunker) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	written := 0
	for len(p) > 0 {
		index := len(c.chunks) - 1
		chunk := c.chunks[index]
		leftInChunk := (maxChunkSize + 2) - len(chunk)

		if len(p) <= leftInChunk {
			c.chunks[index] = append(chunk, p...)
			written += len(p)
			return written, nil
		}

		c.chunks[index] = append(chunk, p[:leftInChunk]...)
		written += leftInChunk
		p = p[leftInChunk:]
		c.chunk()
	}
	return written, nil
}

// send patches each chunk's size prefix and writes everything buffered.
// The buffer is discarded while writing, a failed send leaves the
// remainder for the caller to throw away via reset.
func (c *chunker) send(ctx context.Context, wr racing.Writer) error {
	for len(c.chunks) > 0 {
		chunk := c.chunks[0]
		c.chunks = c.chunks[1:]

		// Size covers user data only, not the prefix itself. Terminator
		// chunks keep their zero size.
		binary.BigEndian.PutUint16(chunk, uint16(len(chunk)-2))

		if _, err := wr.Write(ctx, chunk); err != nil {
			return wrapConnectionError("send failed", err)
		}
	}
	return nil
}

// reset discards all buffered chunks.
func (c *chunker) reset() {
	c.chunks = c.chunks[:0]
}
