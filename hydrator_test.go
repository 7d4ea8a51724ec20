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

// A RECORD containing a node, byte for byte as a server sends it.
func TestHydrateRecordWithNode(t *testing.T) {
	buf := []byte{
		0xb1, 0x71, // RECORD, one field
		0x91,       // list of one
		0xb3, 0x4e, // Node, three fields
		0x12, // id 18
		0x91, 0x89, 'F', 'i', 'r', 's', 't', 'N', 'o', 'd', 'e',
		0xa1, 0x84, 'n', 'a', 'm', 'e', 0x86, 'S', 't', 'e', 'v', 'e', 'n',
	}
	h := hydrator{}
	x, err := h.message(buf)
	require.NoError(t, err)
	record, ok := x.(*Record)
	require.True(t, ok)
	require.Len(t, record.Values, 1)
	node, ok := record.Values[0].(*Node)
	require.True(t, ok)
	assert.Equal(t, int64(18), node.Id)
	assert.Equal(t, []string{"FirstNode"}, node.Labels)
	assert.Equal(t, map[string]any{"name": "Steven"}, node.Props)
}

func TestHydrateSuccess(t *testing.T) {
	buf := []byte{
		0xb1, 0x70, // SUCCESS, one field
		0xa1, 0x88, 'b', 'o', 'o', 'k', 'm', 'a', 'r', 'k',
		0x84, 'b', ':', '4', '2',
	}
	h := hydrator{}
	x, err := h.message(buf)
	require.NoError(t, err)
	msg, ok := x.(*success)
	require.True(t, ok)
	assert.Equal(t, "b:42", msg.bookmark())
}

func TestHydrateFailure(t *testing.T) {
	h := hydrator{}
	buf := packMessage(t, msgFailure, map[string]any{
		"code":    "Neo.TransientError.General.DatabaseUnavailable",
		"message": "try later",
	})
	x, err := h.message(buf)
	require.NoError(t, err)
	serverErr, ok := x.(*ServerError)
	require.True(t, ok)
	assert.Equal(t, ErrTransient, serverErr.Kind())
	assert.Equal(t, "try later", serverErr.Msg)
}

func TestHydrateIgnored(t *testing.T) {
	h := hydrator{}
	x, err := h.message([]byte{0xb0, 0x7e})
	require.NoError(t, err)
	_, ok := x.(*ignored)
	assert.True(t, ok)
}

func TestHydrateUnknownSignature(t *testing.T) {
	h := hydrator{}
	_, err := h.message([]byte{0xb0, 0x99})
	require.Error(t, err)
	protocolErr := &ProtocolError{}
	assert.ErrorAs(t, err, &protocolErr)
}

func TestHydrateTrailingBytes(t *testing.T) {
	h := hydrator{}
	_, err := h.message([]byte{0xb0, 0x7e, 0x00})
	require.Error(t, err)
	protocolErr := &ProtocolError{}
	assert.ErrorAs(t, err, &protocolErr)
}

func TestHydrateSuccessMetadataHelpers(t *testing.T) {
	h := hydrator{}
	buf := packMessage(t, msgSuccess, map[string]any{
		"server":        "Neo4j/5.13.0",
		"connection_id": "bolt-7",
		"fields":        []any{"n", "m"},
		"qid":           int64(3),
		"has_more":      true,
		"stats":         map[string]any{"nodes-created": int64(2)},
		"notifications": []any{
			map[string]any{
				"code":        "Neo.ClientNotification.Statement.CartesianProduct",
				"title":       "cartesian product",
				"description": "...",
				"severity":    "WARNING",
				"category":    "PERFORMANCE",
				"position":    map[string]any{"offset": int64(9), "line": int64(1), "column": int64(10)},
			},
		},
	})
	x, err := h.message(buf)
	require.NoError(t, err)
	msg := x.(*success)
	assert.Equal(t, []string{"n", "m"}, msg.fields())
	assert.Equal(t, int64(3), msg.qid())
	assert.True(t, msg.hasMore())
	assert.Equal(t, map[string]int{"nodes-created": 2}, msg.stats())

	meta := metadataFrom(msg)
	assert.Equal(t, "Neo4j/5.13.0", meta.Agent)
	assert.Equal(t, "5.13.0", meta.Server)
	assert.Equal(t, "bolt-7", meta.ConnectionId)

	notifications := msg.notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "WARNING", notifications[0].Severity)
	require.NotNil(t, notifications[0].Position)
	assert.Equal(t, 10, notifications[0].Position.Column)
}
