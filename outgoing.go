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

	"github.com/graphwire/bolt/internal/packstream"
	"github.com/graphwire/bolt/internal/racing"
	"github.com/graphwire/bolt/log"
)

// outgoing constructs request messages and buffers their chunked encoding
// until send. Pack errors are reported through onErr, they indicate a local
// programming error and poison the connection.
type outgoing struct {
	chunker *chunker
	packer  *packstream.Packer
	onErr   func(error)
	wireLog log.WireLogger
	logId   string
}

func newOutgoing(onErr func(error), wireLog log.WireLogger) *outgoing {
	ch := newChunker()
	return &outgoing{
		chunker: ch,
		packer:  packstream.NewPacker(ch, nil),
		onErr:   onErr,
		wireLog: wireLog,
	}
}

func (o *outgoing) appendX(tag packstream.StructTag, fields ...any) {
	o.chunker.beginMessage()
	if err := o.packer.PackStruct(tag, fields...); err != nil {
		o.onErr(err)
		return
	}
	o.chunker.endMessage()
}

func (o *outgoing) appendHello(hello map[string]any) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "HELLO %s", loggableMap(hello))
	}
	o.appendX(msgHello, hello)
}

func (o *outgoing) appendLogon(token map[string]any) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "LOGON %s", loggableMap(token))
	}
	o.appendX(msgLogon, token)
}

func (o *outgoing) appendLogoff() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "LOGOFF")
	}
	o.appendX(msgLogoff)
}

func (o *outgoing) appendBegin(extra map[string]any) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "BEGIN %v", extra)
	}
	o.appendX(msgBegin, extra)
}

func (o *outgoing) appendCommit() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "COMMIT")
	}
	o.appendX(msgCommit)
}

func (o *outgoing) appendRollback() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "ROLLBACK")
	}
	o.appendX(msgRollback)
}

func (o *outgoing) appendRun(cypher string, params, extra map[string]any) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "RUN %q %v %v", cypher, params, extra)
	}
	o.appendX(msgRun, cypher, params, extra)
}

// appendPullAll requests the complete stream, used when the negotiated
// version predates flow-controlled streaming.
func (o *outgoing) appendPullAll() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "PULL ALL")
	}
	o.appendX(msgPull)
}

func (o *outgoing) appendPullN(n int) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "PULL %v", map[string]any{"n": n})
	}
	o.appendX(msgPull, map[string]any{"n": n})
}

func (o *outgoing) appendPullNQid(n int, qid int64) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "PULL %v", map[string]any{"n": n, "qid": qid})
	}
	o.appendX(msgPull, map[string]any{"n": n, "qid": qid})
}

func (o *outgoing) appendDiscardAll() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "DISCARD ALL")
	}
	o.appendX(msgDiscard)
}

func (o *outgoing) appendDiscardN(n int) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "DISCARD %v", map[string]any{"n": n})
	}
	o.appendX(msgDiscard, map[string]any{"n": n})
}

func (o *outgoing) appendDiscardNQid(n int, qid int64) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "DISCARD %v", map[string]any{"n": n, "qid": qid})
	}
	o.appendX(msgDiscard, map[string]any{"n": n, "qid": qid})
}

// appendRoute emits ROUTE with a null database when none is selected and
// the impersonated user only for versions that understand it.
func (o *outgoing) appendRoute(routingContext map[string]string, bookmarks []string, database, impersonatedUser string, version Version) {
	if routingContext == nil {
		routingContext = map[string]string{}
	}
	if bookmarks == nil {
		bookmarks = []string{}
	}
	var db any
	if database != "" {
		db = database
	}
	fields := []any{routingContext, bookmarks, db}
	if impersonatedUser != "" && version.AtLeast(4, 4) {
		fields = append(fields, impersonatedUser)
	}
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "ROUTE %v %v %v", routingContext, bookmarks, db)
	}
	o.appendX(msgRoute, fields...)
}

func (o *outgoing) appendTelemetry(api int) {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "TELEMETRY %d", api)
	}
	o.appendX(msgTelemetry, api)
}

func (o *outgoing) appendReset() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "RESET")
	}
	o.appendX(msgReset)
}

func (o *outgoing) appendGoodbye() {
	if o.wireLog != nil {
		o.wireLog.LogClientMessage(o.logId, "GOODBYE")
	}
	o.appendX(msgGoodbye)
}

func (o *outgoing) send(ctx context.Context, wr racing.Writer) error {
	err := o.chunker.send(ctx, wr)
	if err != nil {
		o.chunker.reset()
	}
	return err
}

// loggableMap blanks credentials out of traced auth maps.
func loggableMap(m map[string]any) map[string]any {
	if _, sensitive := m["credentials"]; !sensitive {
		return m
	}
	masked := make(map[string]any, len(m))
	for k, v := range m {
		if k == "credentials" {
			masked[k] = "******"
			continue
		}
		masked[k] = v
	}
	return masked
}
