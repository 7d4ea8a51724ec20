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
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphwire/bolt/internal/packstream"
	"github.com/graphwire/bolt/internal/racing"
)

// packNode renders a node structure the way a server would send it.
func packNode(id int64, label string, props map[string]any) *packstream.Struct {
	return &packstream.Struct{Tag: structNode, Fields: []any{id, []any{label}, props}}
}

// packMessage encodes one message without chunk framing.
func packMessage(t *testing.T, tag packstream.StructTag, fields ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	packer := packstream.NewPacker(&buf, nil)
	require.NoError(t, packer.PackStruct(tag, fields...))
	return buf.Bytes()
}

// Fake of a Bolt server, used to test the protocol implementation against
// real bytes on a real socket. Panics on errors, which simplifies output
// when the server runs within a goroutine in the test.
type boltServer struct {
	conn net.Conn
	rd   racing.Reader
	wr   racing.Writer
	out  *outgoing
}

type testStruct struct {
	tag    packstream.StructTag
	fields []any
}

func newBoltServer(conn net.Conn) *boltServer {
	return &boltServer{
		conn: conn,
		rd:   racing.NewReader(conn),
		wr:   racing.NewWriter(conn),
		out:  newOutgoing(func(err error) { panic(err) }, nil),
	}
}

func setupPipe(t *testing.T) (net.Conn, *boltServer, func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to listen: %s", err)
	}

	addr := l.Addr()
	clientConn, _ := net.Dial(addr.Network(), addr.String())

	srvConn, err := l.Accept()
	if err != nil {
		t.Fatalf("accept error: %s", err)
	}
	srv := newBoltServer(srvConn)

	return clientConn, srv, func() {
		_ = l.Close()
	}
}

func (s *boltServer) waitForHandshake() []byte {
	handshake := make([]byte, 4*5)
	if _, err := io.ReadFull(s.conn, handshake); err != nil {
		panic(err)
	}
	return handshake
}

// acceptVersion confirms the handshake with the wire form of the version.
func (s *boltServer) acceptVersion(major, minor byte) {
	accepted := []byte{minor, 0x00, 0x00, major}
	if _, err := s.conn.Write(accepted); err != nil {
		panic(err)
	}
}

func (s *boltServer) receiveMsg() *testStruct {
	buf, err := dechunkMessage(context.Background(), s.rd, nil, 0)
	if err != nil {
		panic(err)
	}
	unpacker := packstream.NewUnpacker(bytes.NewReader(buf))
	x, err := unpacker.UnpackStruct(func(tag packstream.StructTag, fields []any) (any, error) {
		return &testStruct{tag: tag, fields: fields}, nil
	})
	if err != nil {
		panic(err)
	}
	return x.(*testStruct)
}

func (s *boltServer) assertStructType(msg *testStruct, tag packstream.StructTag) {
	if msg.tag != tag {
		panic(fmt.Sprintf("got wrong type of message, expected %d but got %d (%+v)", tag, msg.tag, msg))
	}
}

func (s *boltServer) send(tag packstream.StructTag, fields ...any) {
	s.out.appendX(tag, fields...)
	if err := s.out.send(context.Background(), s.wr); err != nil {
		panic(err)
	}
}

func (s *boltServer) sendSuccess(meta map[string]any) {
	s.send(msgSuccess, meta)
}

func (s *boltServer) sendRecord(values []any) {
	s.send(msgRecord, values)
}

func (s *boltServer) sendFailureMsg(code, msg string) {
	s.send(msgFailure, map[string]any{"code": code, "message": msg})
}

func (s *boltServer) sendIgnoredMsg() {
	s.send(msgIgnored)
}

// waitForHello returns the hello extra map.
func (s *boltServer) waitForHello() map[string]any {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgHello)
	m := msg.fields[0].(map[string]any)
	if _, exists := m["user_agent"]; !exists {
		s.sendFailureMsg("?", "Missing user_agent in hello")
	}
	return m
}

func (s *boltServer) waitForLogon() map[string]any {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgLogon)
	return msg.fields[0].(map[string]any)
}

func (s *boltServer) acceptHello() {
	s.sendSuccess(map[string]any{
		"connection_id": "bolt-1",
		"server":        "Neo4j/5.13.0",
	})
}

func (s *boltServer) acceptHelloWithHints(hints map[string]any) {
	s.sendSuccess(map[string]any{
		"connection_id": "bolt-1",
		"server":        "Neo4j/5.13.0",
		"hints":         hints,
	})
}

func (s *boltServer) rejectHelloUnauthorized() {
	s.sendFailureMsg("Neo.ClientError.Security.Unauthorized", "")
}

// accept performs the full connect sequence for versions up to 5.0.
func (s *boltServer) accept(major, minor byte) {
	s.waitForHandshake()
	s.acceptVersion(major, minor)
	s.waitForHello()
	s.acceptHello()
}

// accept51 performs the full connect sequence with the split HELLO/LOGON
// dance of 5.1 and newer.
func (s *boltServer) accept51(major, minor byte) {
	s.waitForHandshake()
	s.acceptVersion(major, minor)
	s.waitForHello()
	s.waitForLogon()
	s.acceptHello()
	s.sendSuccess(map[string]any{})
}

func (s *boltServer) waitForRun(assertFields func(fields []any)) {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgRun)
	if assertFields != nil {
		assertFields(msg.fields)
	}
}

func (s *boltServer) waitForPullN(n int) {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgPull)
	extra := msg.fields[0].(map[string]any)
	sentN := int(extra["n"].(int64))
	if sentN != n {
		panic(fmt.Sprintf("expected PULL n:%d but got PULL %d", n, sentN))
	}
	if _, hasQid := extra["qid"]; hasQid {
		panic("expected PULL without qid")
	}
}

func (s *boltServer) waitForPullAll() {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgPull)
	if len(msg.fields) != 0 {
		panic("expected PULL ALL without fields")
	}
}

func (s *boltServer) waitForDiscardN(n int) {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgDiscard)
	extra := msg.fields[0].(map[string]any)
	sentN := int(extra["n"].(int64))
	if sentN != n {
		panic(fmt.Sprintf("expected DISCARD n:%d but got DISCARD %d", n, sentN))
	}
}

func (s *boltServer) waitForTxBegin(assertExtra func(extra map[string]any)) {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgBegin)
	if assertExtra != nil {
		assertExtra(msg.fields[0].(map[string]any))
	}
}

func (s *boltServer) waitForTxCommit() {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgCommit)
}

func (s *boltServer) waitForTxRollback() {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgRollback)
}

func (s *boltServer) waitForReset() {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgReset)
}

func (s *boltServer) waitForGoodbye() {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgGoodbye)
}

func (s *boltServer) waitForRoute(assertRoute func(fields []any)) {
	msg := s.receiveMsg()
	s.assertStructType(msg, msgRoute)
	if assertRoute != nil {
		assertRoute(msg.fields)
	}
}

func (s *boltServer) closeConnection() {
	_ = s.conn.Close()
}

// serveRun waits for an auto-commit query and answers with the given
// response stream.
func (s *boltServer) serveRun(stream []testStruct) {
	s.waitForRun(nil)
	s.waitForPullN(defaultFetchSize)
	for _, x := range stream {
		s.send(x.tag, x.fields...)
	}
}
