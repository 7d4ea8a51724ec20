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
	"container/list"
	"context"
	"fmt"

	"github.com/graphwire/bolt/internal/racing"
	"github.com/graphwire/bolt/log"
)

// responseHandler reacts to one correlated response. A nil callback for the
// received category is a protocol violation by the server.
type responseHandler struct {
	onSuccess func(*success)
	onRecord  func(*Record)
	onFailure func(context.Context, *ServerError)
	onIgnored func(*ignored)
}

func onSuccessNoOp(*success) {}
func onIgnoredNoOp(*ignored) {}

// messageQueue pipelines requests and matches responses against queued
// handlers in FIFO order. The server answers requests in send order, so
// several requests may be outstanding at once.
type messageQueue struct {
	in       *incoming
	out      *outgoing
	rd       racing.Reader
	wr       racing.Writer
	handlers list.List // List[responseHandler]
	err      error

	onNextMessage func()
	onIoErr       func(context.Context, error)
}

func newMessageQueue(
	rd racing.Reader, wr racing.Writer,
	in *incoming, out *outgoing,
	onNext func(),
	onIoErr func(context.Context, error),
) messageQueue {
	return messageQueue{
		in:            in,
		out:           out,
		rd:            rd,
		wr:            wr,
		onNextMessage: onNext,
		onIoErr:       onIoErr,
	}
}

func (q *messageQueue) appendHello(hello map[string]any, handler responseHandler) {
	q.out.appendHello(hello)
	q.enqueue(handler)
}

func (q *messageQueue) appendLogon(token map[string]any, handler responseHandler) {
	q.out.appendLogon(token)
	q.enqueue(handler)
}

func (q *messageQueue) appendLogoff(handler responseHandler) {
	q.out.appendLogoff()
	q.enqueue(handler)
}

func (q *messageQueue) appendBegin(extra map[string]any, handler responseHandler) {
	q.out.appendBegin(extra)
	q.enqueue(handler)
}

func (q *messageQueue) appendCommit(handler responseHandler) {
	q.out.appendCommit()
	q.enqueue(handler)
}

func (q *messageQueue) appendRollback(handler responseHandler) {
	q.out.appendRollback()
	q.enqueue(handler)
}

func (q *messageQueue) appendRun(cypher string, params, extra map[string]any, handler responseHandler) {
	q.out.appendRun(cypher, params, extra)
	q.enqueue(handler)
}

func (q *messageQueue) appendPullAll(handler responseHandler) {
	q.out.appendPullAll()
	q.enqueue(handler)
}

func (q *messageQueue) appendPullN(fetchSize int, handler responseHandler) {
	q.out.appendPullN(fetchSize)
	q.enqueue(handler)
}

func (q *messageQueue) appendPullNQid(fetchSize int, qid int64, handler responseHandler) {
	q.out.appendPullNQid(fetchSize, qid)
	q.enqueue(handler)
}

func (q *messageQueue) appendDiscardAll(handler responseHandler) {
	q.out.appendDiscardAll()
	q.enqueue(handler)
}

func (q *messageQueue) appendDiscardN(fetchSize int, handler responseHandler) {
	q.out.appendDiscardN(fetchSize)
	q.enqueue(handler)
}

func (q *messageQueue) appendDiscardNQid(fetchSize int, qid int64, handler responseHandler) {
	q.out.appendDiscardNQid(fetchSize, qid)
	q.enqueue(handler)
}

func (q *messageQueue) appendRoute(routingContext map[string]string, bookmarks []string, database, impersonatedUser string, version Version, handler responseHandler) {
	q.out.appendRoute(routingContext, bookmarks, database, impersonatedUser, version)
	q.enqueue(handler)
}

func (q *messageQueue) appendTelemetry(api int, handler responseHandler) {
	q.out.appendTelemetry(api)
	q.enqueue(handler)
}

func (q *messageQueue) appendReset(handler responseHandler) {
	q.out.appendReset()
	q.enqueue(handler)
}

func (q *messageQueue) appendGoodbye() {
	// No response expected
	q.out.appendGoodbye()
}

func (q *messageQueue) send(ctx context.Context) {
	if err := q.out.send(ctx, q.wr); err != nil {
		q.err = err
		q.onIoErr(ctx, err)
	}
}

func (q *messageQueue) receiveAll(ctx context.Context) error {
	for q.handlers.Len() > 0 {
		if err := q.receive(ctx); err != nil {
			return err
		}
	}
	return nil
}

// receive consumes one response and dispatches it to the handler at the
// front of the queue. A FAILURE response is returned as the error.
func (q *messageQueue) receive(ctx context.Context) error {
	res := q.receiveMsg(ctx)
	if q.err != nil {
		return q.err
	}

	// A response the queue cannot match breaks the connection
	violation := func(msg string) error {
		err := &ProtocolError{Msg: msg}
		q.err = err
		q.onIoErr(ctx, err)
		return err
	}
	if q.handlers.Len() == 0 {
		return violation("no response handler to apply")
	}
	handler := q.pop()
	switch message := res.(type) {
	case *Record:
		if handler.onRecord == nil {
			return violation("the server sent an unexpected RECORD response")
		}
		handler.onRecord(message)
	case *success:
		if handler.onSuccess == nil {
			return violation("the server sent an unexpected SUCCESS response")
		}
		handler.onSuccess(message)
	case *ServerError:
		if handler.onFailure == nil {
			return violation("the server sent an unexpected FAILURE response")
		}
		handler.onFailure(ctx, message)
		return message
	case *ignored:
		if handler.onIgnored == nil {
			return violation("the server sent an unexpected IGNORED response")
		}
		handler.onIgnored(message)
	default:
		panic(fmt.Errorf("did not expect message %v", res))
	}
	return nil
}

func (q *messageQueue) receiveMsg(ctx context.Context) any {
	// Receiving after an error could hang, the caller relies on this check.
	if q.err != nil {
		return nil
	}

	msg, err := q.in.next(ctx, q.rd)
	if err != nil {
		q.err = err
		q.onIoErr(ctx, err)
		return nil
	}
	q.onNextMessage()
	return msg
}

// pushFront requeues a handler so that it also receives the next response,
// used by streaming handlers to stay attached across records.
func (q *messageQueue) pushFront(handler responseHandler) {
	q.handlers.PushFront(handler)
}

func (q *messageQueue) pop() responseHandler {
	return q.handlers.Remove(q.handlers.Front()).(responseHandler)
}

func (q *messageQueue) enqueue(handler responseHandler) {
	q.handlers.PushBack(handler)
}

func (q *messageQueue) isEmpty() bool {
	return q.handlers.Len() == 0
}

func (q *messageQueue) setLogId(logId string) {
	q.in.hyd.logId = logId
	q.out.logId = logId
}

func (q *messageQueue) setWireLogger(wireLog log.WireLogger) {
	q.in.hyd.wireLog = wireLog
	q.out.wireLog = wireLog
}
