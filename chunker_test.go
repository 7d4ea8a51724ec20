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
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphwire/bolt/internal/racing"
)

func chunkToBytes(t *testing.T, messages ...[]byte) []byte {
	t.Helper()
	var out bytes.Buffer
	ch := newChunker()
	for _, msg := range messages {
		ch.beginMessage()
		_, err := ch.Write(msg)
		require.NoError(t, err)
		ch.endMessage()
	}
	require.NoError(t, ch.send(context.Background(), racing.NewWriter(&out)))
	return out.Bytes()
}

// trickleReader hands out at most a few bytes per read to simulate
// fragmented socket receives.
type trickleReader struct {
	rd io.Reader
}

func (r *trickleReader) Read(p []byte) (int, error) {
	if len(p) > 3 {
		p = p[:3]
	}
	return r.rd.Read(p)
}

func dechunkAll(t *testing.T, wire []byte, count int) [][]byte {
	t.Helper()
	rd := racing.NewReader(&trickleReader{rd: bytes.NewReader(wire)})
	messages := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		msg, err := dechunkMessage(context.Background(), rd, nil, 0)
		require.NoError(t, err)
		messages = append(messages, append([]byte{}, msg...))
	}
	return messages
}

func pattern(n int) []byte {
	msg := make([]byte, n)
	for i := range msg {
		msg[i] = byte(i % 251)
	}
	return msg
}

func TestChunkRoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 100, 0xfffe, 0xffff, 0x10000, 70000} {
		msg := pattern(size)
		wire := chunkToBytes(t, msg)
		back := dechunkAll(t, wire, 1)
		require.Equal(t, msg, back[0], "size %d", size)
	}
}

// A message never starts with a zero length and always ends with the
// 0x00 0x00 terminator.
func TestChunkFraming(t *testing.T) {
	wire := chunkToBytes(t, []byte{0xb0, 0x02})
	require.GreaterOrEqual(t, len(wire), 6)
	assert.NotZero(t, binary.BigEndian.Uint16(wire[0:2]))
	assert.Equal(t, []byte{0x00, 0x00}, wire[len(wire)-2:])
}

func TestChunkBoundaries(t *testing.T) {
	// Exactly one full chunk
	wire := chunkToBytes(t, pattern(0xffff))
	require.Len(t, wire, 2+0xffff+2)
	assert.Equal(t, uint16(0xffff), binary.BigEndian.Uint16(wire[0:2]))
	assert.Equal(t, []byte{0x00, 0x00}, wire[len(wire)-2:])

	// One byte over: a second chunk of size 1 before the terminator
	wire = chunkToBytes(t, pattern(0x10000))
	require.Len(t, wire, 2+0xffff+2+1+2)
	assert.Equal(t, uint16(0xffff), binary.BigEndian.Uint16(wire[0:2]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(wire[2+0xffff:2+0xffff+2]))
	assert.Equal(t, []byte{0x00, 0x00}, wire[len(wire)-2:])
}

func TestChunkSeveralMessages(t *testing.T) {
	m1, m2, m3 := pattern(10), pattern(66000), pattern(3)
	wire := chunkToBytes(t, m1, m2, m3)
	back := dechunkAll(t, wire, 3)
	assert.Equal(t, m1, back[0])
	assert.Equal(t, m2, back[1])
	assert.Equal(t, m3, back[2])
}

// Zero-length chunks ahead of a message are server keep-alives.
func TestDechunkSkipsKeepAlive(t *testing.T) {
	msg := pattern(5)
	wire := append([]byte{0x00, 0x00, 0x00, 0x00}, chunkToBytes(t, msg)...)
	back := dechunkAll(t, wire, 1)
	assert.Equal(t, msg, back[0])
}

func TestDechunkTruncatedStream(t *testing.T) {
	wire := chunkToBytes(t, pattern(100))
	rd := racing.NewReader(bytes.NewReader(wire[:50]))
	_, err := dechunkMessage(context.Background(), rd, nil, 0)
	require.Error(t, err)
	connErr := &ConnectionError{}
	assert.ErrorAs(t, err, &connErr)
}

func TestChunkerReset(t *testing.T) {
	var out bytes.Buffer
	ch := newChunker()
	ch.beginMessage()
	_, _ = ch.Write([]byte{1, 2, 3})
	ch.endMessage()
	ch.reset()
	require.NoError(t, ch.send(context.Background(), racing.NewWriter(&out)))
	assert.Zero(t, out.Len())
}
