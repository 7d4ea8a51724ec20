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
	"net"
	"time"

	"github.com/graphwire/bolt/internal/racing"
	"github.com/graphwire/bolt/log"
)

// Connection states. A connection operates single-threaded: all protocol
// operations are serialized by the owning task.
const (
	connUnauthorized = iota // Version negotiated, authentication not done
	connReady               // Ready for use
	connStreaming           // Receiving result from an auto-commit query
	connTx                  // Transaction pending
	connStreamingTx         // Receiving result from a query within a transaction
	connFailed              // Recoverable error, needs reset
	connDead                // Non-recoverable protocol or connection error
)

// Default number of records requested per PULL batch.
const defaultFetchSize = 1000

// Server hints recognized from the HELLO response.
const (
	readTimeoutHintName = "connection.recv_timeout_seconds"
	telemetryHintName   = "telemetry.enabled"
)

// Connection is one live Bolt session over an owned socket. It is not safe
// for concurrent use: a single task drives it through at most one
// send/receive batch at a time.
type Connection struct {
	settings         Settings
	conn             net.Conn
	version          Version
	caps             Capabilities
	state            int
	queue            messageQueue
	streams          openStreams
	lastQid          int64 // Last seen qid, -1 until a stream attached
	bookmark         string
	metadata         *Metadata
	err              error // Last fatal or batch error
	log              log.Logger
	logId            string
	serverName       string
	connected        bool
	closed           bool
	telemetryEnabled bool
	birthDate        time.Time
	idleDate         time.Time
}

type options struct {
	logger  log.Logger
	wireLog log.WireLogger
	dialer  *Dialer
}

// Option customizes a connection beyond its Settings.
type Option func(*options)

// WithLogger attaches a logger to the connection.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithWireLogger attaches a raw protocol tracer to the connection.
func WithWireLogger(wireLog log.WireLogger) Option {
	return func(o *options) { o.wireLog = wireLog }
}

// WithDialer overrides how Open establishes the socket.
func WithDialer(dialer Dialer) Option {
	return func(o *options) { o.dialer = &dialer }
}

// Open dials the address and negotiates a full session: handshake,
// authentication, ready for use.
func Open(ctx context.Context, address string, settings Settings, opts ...Option) (*Connection, error) {
	settings = settings.withDefaults()
	resolved := resolveOptions(opts)
	dialer := resolved.dialer
	if dialer == nil {
		dialer = &Dialer{
			Timeout:   settings.connectTimeout(),
			KeepAlive: settings.KeepAlive,
			Log:       resolved.logger,
		}
	}
	conn, err := dialer.Dial(ctx, address)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, address, conn, settings, opts...)
}

// Connect negotiates a session over an already established socket. The
// socket is owned by the connection afterwards, also when Connect fails.
func Connect(ctx context.Context, address string, conn net.Conn, settings Settings, opts ...Option) (*Connection, error) {
	settings = settings.withDefaults()
	resolved := resolveOptions(opts)

	c := &Connection{
		settings:   settings,
		conn:       conn,
		state:      connUnauthorized,
		lastQid:    -1,
		log:        resolved.logger,
		logId:      address,
		serverName: address,
		birthDate:  time.Now(),
		idleDate:   time.Now(),
	}
	rd := racing.NewReader(conn)
	wr := racing.NewWriter(conn)
	c.queue = newMessageQueue(
		rd, wr,
		&incoming{
			buf:         make([]byte, 0, 4096),
			hyd:         hydrator{wireLog: resolved.wireLog},
			readTimeout: settings.socketTimeout(),
		},
		newOutgoing(func(err error) { c.setError(err, true) }, resolved.wireLog),
		c.onNextMessage,
		c.onIoError,
	)
	c.queue.setLogId(address)

	version, err := handshake(ctx, wr, rd, resolved.wireLog)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.version = version
	c.caps = capabilitiesOf(version)
	c.settings = settings.withVersion(version)
	c.log.Infof(log.Connection, c.logId, "negotiated Bolt %s", version)

	if err := c.authenticate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func resolveOptions(opts []Option) options {
	resolved := options{logger: log.Void{}}
	for _, opt := range opts {
		opt(&resolved)
	}
	return resolved
}

// authenticate performs the HELLO dance, and on 5.1+ the LOGON that carries
// the credentials instead.
func (c *Connection) authenticate(ctx context.Context) error {
	hello := map[string]any{
		"user_agent": c.settings.UserAgent,
	}
	if c.settings.RoutingContext != nil {
		hello["routing"] = c.settings.RoutingContext
	}
	if !c.caps.Has(CapReauth) {
		// Credentials ride on HELLO for versions without LOGON
		for k, v := range c.settings.token() {
			hello[k] = v
		}
	}
	if err := notificationFiltering(c, c.settings.NotificationsMinSeverity, c.settings.NotificationsDisabledCategories, hello); err != nil {
		return err
	}

	c.queue.appendHello(hello, c.helloResponseHandler())
	if c.caps.Has(CapReauth) {
		c.queue.appendLogon(c.settings.token(), c.logonResponseHandler())
	}
	if c.queue.send(ctx); c.err != nil {
		return c.err
	}
	if err := c.queue.receiveAll(ctx); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}

	c.state = connReady
	c.connected = true
	c.streams.reset()
	c.log.Infof(log.Connection, c.logId, "connected")
	return nil
}

// setError records err and moves to the failed state, or to dead when
// fatal. Any current stream is detached with the error.
func (c *Connection) setError(err error, fatal bool) {
	if err == nil {
		return
	}

	if c.err == nil {
		c.err = err
		c.state = connFailed
	}
	if fatal {
		c.err = err
		c.state = connDead
		c.connected = false
	}

	if c.streams.curr != nil {
		c.streams.detach(err)
		c.checkStreams()
	}

	if serverErr, isServer := err.(*ServerError); isServer && serverErr.Kind() != ErrTransient {
		// Do not log full statements at error level
		c.log.Debugf(log.Connection, c.logId, "%s", err)
	} else {
		c.log.Error(log.Connection, c.logId, err)
	}
}

func (c *Connection) onNextMessage() {
	c.idleDate = time.Now()
}

func (c *Connection) onIoError(_ context.Context, err error) {
	c.setError(err, true)
}

func (c *Connection) onFailure(_ context.Context, failure *ServerError) {
	c.setError(failure, false)
}

// assertState does not touch c.err or c.state, a prior error is forwarded
// instead since it is probably the root cause of the state mismatch.
func (c *Connection) assertState(allowed ...int) error {
	if c.err != nil {
		return c.err
	}
	for _, a := range allowed {
		if c.state == a {
			return nil
		}
	}
	err := &ServiceError{Msg: fmt.Sprintf("invalid state %d, expected one of %v", c.state, allowed)}
	c.log.Error(log.Connection, c.logId, err)
	return err
}

func (c *Connection) checkStreams() {
	if c.streams.num() > 0 {
		return
	}
	switch c.state {
	case connStreamingTx:
		c.state = connTx
	case connStreaming:
		c.state = connReady
	}
}

// noteBookmark tracks the causal checkpoint of a successful response.
// Failures never advance the bookmark.
func (c *Connection) noteBookmark(s *success) {
	if b := s.bookmark(); b != "" {
		c.bookmark = b
	}
}

// Begin opens an explicit transaction. Any auto-commit stream still open
// is buffered first.
func (c *Connection) Begin(ctx context.Context, config TxConfig) error {
	if c.state == connStreaming {
		if c.bufferStream(ctx); c.err != nil {
			return c.err
		}
	}
	c.streams.reset()

	if err := c.assertState(connReady); err != nil {
		return err
	}
	extra, err := config.toExtra(c)
	if err != nil {
		return err
	}

	c.queue.appendBegin(extra, c.expectedSuccessHandler(onSuccessNoOp))
	if c.queue.send(ctx); c.err != nil {
		return c.err
	}
	if err := c.queue.receiveAll(ctx); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}

	c.state = connTx
	return nil
}

// Commit closes the transaction scope. Open streams are discarded, their
// records are not reachable outside the transaction anyway.
func (c *Connection) Commit(ctx context.Context) error {
	if c.discardAllStreams(ctx); c.err != nil {
		return c.err
	}
	if err := c.assertState(connTx); err != nil {
		return err
	}

	c.queue.appendCommit(c.expectedSuccessHandler(onSuccessNoOp))
	if c.queue.send(ctx); c.err != nil {
		return c.err
	}
	if err := c.queue.receiveAll(ctx); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}

	c.state = connReady
	return nil
}

func (c *Connection) Rollback(ctx context.Context) error {
	if c.discardAllStreams(ctx); c.err != nil {
		return c.err
	}
	if err := c.assertState(connTx); err != nil {
		return err
	}

	c.queue.appendRollback(c.expectedSuccessHandler(onSuccessNoOp))
	if c.queue.send(ctx); c.err != nil {
		return c.err
	}
	if err := c.queue.receiveAll(ctx); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}

	c.state = connReady
	return nil
}

// Command is one statement with its parameters.
type Command struct {
	Cypher    string
	Params    map[string]any
	FetchSize int // <0 all, 0 default batch size
}

// Run executes an auto-commit query and attaches a stream to its result.
func (c *Connection) Run(ctx context.Context, cmd Command, config TxConfig) (*Stream, error) {
	if err := c.assertState(connStreaming, connReady); err != nil {
		return nil, err
	}
	extra, err := config.toExtra(c)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, cmd, extra)
}

// RunInTx executes a query within the open transaction.
func (c *Connection) RunInTx(ctx context.Context, cmd Command) (*Stream, error) {
	if err := c.assertState(connTx, connStreamingTx); err != nil {
		return nil, err
	}
	return c.run(ctx, cmd, map[string]any{})
}

func (c *Connection) run(ctx context.Context, cmd Command, extra map[string]any) (*Stream, error) {
	// Consume or pause whatever is currently streaming
	if c.state == connStreaming {
		if c.bufferStream(ctx); c.err != nil {
			return nil, c.err
		}
	} else if c.state == connStreamingTx {
		if c.pauseStream(ctx); c.err != nil {
			return nil, c.err
		}
	}

	if err := c.assertState(connTx, connReady, connStreamingTx); err != nil {
		return nil, err
	}

	fetchSize := c.normalizeFetchSize(cmd.FetchSize)
	stream := &Stream{fetchSize: fetchSize, qid: -1}
	c.queue.appendRun(cmd.Cypher, cmd.Params, extra, c.runResponseHandler(stream))
	if c.caps.Has(CapStreaming) {
		c.queue.appendPullN(fetchSize, c.pullResponseHandler(stream))
	} else {
		c.queue.appendPullAll(c.pullResponseHandler(stream))
	}
	if c.queue.send(ctx); c.err != nil {
		return nil, c.err
	}
	// Only consume the RUN response here, records are pulled on demand
	for !stream.attached {
		if err := c.queue.receive(ctx); err != nil {
			return nil, err
		}
		if c.err != nil {
			return nil, c.err
		}
	}

	if c.state == connReady {
		c.state = connStreaming
	} else if c.state == connTx {
		c.state = connStreamingTx
	}
	return stream, nil
}

func (c *Connection) normalizeFetchSize(fetchSize int) int {
	if !c.caps.Has(CapStreaming) || fetchSize < 0 {
		return -1
	}
	if fetchSize == 0 {
		return defaultFetchSize
	}
	return fetchSize
}

// Next delivers the next record of the stream, or its summary at the end.
func (c *Connection) Next(ctx context.Context, stream *Stream) (*Record, *Summary, error) {
	for {
		buffered, rec, sum, err := stream.bufferedNext()
		if buffered {
			return rec, sum, err
		}
		if stream.endOfBatch {
			c.appendPull(stream)
			if c.queue.send(ctx); c.err != nil {
				return nil, nil, c.err
			}
			stream.endOfBatch = false
		}
		if c.queue.isEmpty() {
			return nil, nil, &ServiceError{Msg: "there should be more results to pull"}
		}
		if err := c.queue.receive(ctx); err != nil {
			return nil, nil, err
		}
		if c.err != nil {
			return nil, nil, c.err
		}
	}
}

// Consume discards the remainder of the stream and returns its summary.
func (c *Connection) Consume(ctx context.Context, stream *Stream) (*Summary, error) {
	if stream.sum != nil || stream.err != nil {
		return stream.sum, stream.err
	}
	if err := c.streams.isSafe(stream); err != nil {
		return nil, err
	}
	if err := c.assertState(connStreaming, connStreamingTx); err != nil {
		return nil, err
	}

	if stream != c.streams.curr {
		if c.pauseStream(ctx); c.err != nil {
			return nil, c.err
		}
		c.resumeStream(ctx, stream)
	}

	c.discardStream(ctx)
	if c.err != nil {
		return nil, c.err
	}
	return stream.sum, stream.err
}

// Buffer pulls the entire remainder of the stream into client memory.
func (c *Connection) Buffer(ctx context.Context, stream *Stream) error {
	if stream.sum != nil || stream.err != nil {
		return stream.err
	}
	if err := c.streams.isSafe(stream); err != nil {
		return err
	}
	if err := c.assertState(connStreaming, connStreamingTx); err != nil {
		return err
	}

	if stream != c.streams.curr {
		if c.pauseStream(ctx); c.err != nil {
			return c.err
		}
		c.resumeStream(ctx, stream)
	}

	c.bufferStream(ctx)
	if c.err != nil {
		return c.err
	}
	return stream.err
}

// bufferStream pulls all records of the current stream into its fifo.
func (c *Connection) bufferStream(ctx context.Context) {
	stream := c.streams.curr
	if stream == nil {
		return
	}

	for {
		if err := c.queue.receiveAll(ctx); err != nil {
			return
		}
		if c.err != nil {
			return
		}
		if stream.sum != nil || stream.err != nil {
			return
		}
		if stream.endOfBatch {
			stream.fetchSize = -1
			c.appendPull(stream)
			if c.queue.send(ctx); c.err != nil {
				return
			}
			stream.endOfBatch = false
		}
	}
}

// pauseStream finishes the ongoing batch and unsets the current stream so
// that another one can proceed.
func (c *Connection) pauseStream(ctx context.Context) {
	stream := c.streams.curr
	if stream == nil {
		return
	}

	if err := c.queue.receiveAll(ctx); err != nil {
		return
	}
	if c.err != nil {
		return
	}
	if stream.sum != nil || stream.err != nil {
		return
	}
	if stream.endOfBatch {
		c.streams.pause()
	}
}

func (c *Connection) resumeStream(ctx context.Context, s *Stream) {
	c.streams.resume(s)
	c.appendPull(s)
	c.queue.send(ctx)
	s.endOfBatch = false
}

// discardStream drops the rest of the current stream on the server.
func (c *Connection) discardStream(ctx context.Context) {
	if c.state != connStreaming && c.state != connStreamingTx {
		return
	}
	stream := c.streams.curr
	if stream == nil {
		return
	}

	stream.discarding = true
	discarded := false
	for {
		if err := c.queue.receiveAll(ctx); err != nil {
			return
		}
		if c.err != nil {
			return
		}
		if stream.sum != nil || stream.err != nil {
			return
		}
		if stream.endOfBatch && discarded {
			c.streams.remove(stream)
			c.checkStreams()
			return
		}
		discarded = true
		stream.fetchSize = -1
		if !c.caps.Has(CapStreaming) {
			c.queue.appendDiscardAll(c.discardResponseHandler(stream))
		} else if c.state == connStreamingTx && stream.qid != c.lastQid {
			c.queue.appendDiscardNQid(stream.fetchSize, stream.qid, c.discardResponseHandler(stream))
		} else {
			c.queue.appendDiscardN(stream.fetchSize, c.discardResponseHandler(stream))
		}
		if c.queue.send(ctx); c.err != nil {
			return
		}
		stream.endOfBatch = false
	}
}

func (c *Connection) discardAllStreams(ctx context.Context) {
	if c.state != connStreaming && c.state != connStreamingTx {
		return
	}
	c.discardStream(ctx)
	c.streams.reset()
	c.checkStreams()
}

// appendPull requests the next batch for the stream, addressing it by qid
// only when it is not the most recently attached one.
func (c *Connection) appendPull(stream *Stream) {
	if !c.caps.Has(CapStreaming) {
		return
	}
	if c.state == connStreamingTx && stream.qid != c.lastQid {
		c.queue.appendPullNQid(stream.fetchSize, stream.qid, c.pullResponseHandler(stream))
	} else {
		c.queue.appendPullN(stream.fetchSize, c.pullResponseHandler(stream))
	}
}

// Reset recovers a failed connection back to ready, aborting whatever was
// in flight. The tracked bookmark survives, the session is the same.
func (c *Connection) Reset(ctx context.Context) error {
	defer func() {
		c.streams.reset()
		c.lastQid = -1
	}()

	if c.state == connReady {
		return nil
	}
	if c.state == connDead || c.closed {
		return &ServiceError{Msg: "cannot reset a dead connection"}
	}

	// The pending error should match the failed state, it is recoverable
	c.err = nil

	if err := c.queue.receiveAll(ctx); err != nil || c.err != nil {
		return c.brokenAfterReset()
	}
	c.queue.appendReset(responseHandler{
		onSuccess: func(*success) {
			c.state = connReady
		},
		onFailure: func(_ context.Context, failure *ServerError) {
			c.setError(failure, true)
		},
		onIgnored: onIgnoredNoOp,
	})
	if c.queue.send(ctx); c.err != nil {
		return c.brokenAfterReset()
	}
	if err := c.queue.receive(ctx); err != nil || c.err != nil {
		return c.brokenAfterReset()
	}
	return nil
}

func (c *Connection) brokenAfterReset() error {
	if c.err == nil {
		c.err = &ConnectionError{Msg: "connection is broken"}
	}
	c.state = connDead
	c.connected = false
	return c.err
}

// Route retrieves the raw routing table for a database. Requires a version
// with the routing capability.
func (c *Connection) Route(ctx context.Context, routingContext map[string]string, bookmarks []string, database, impersonatedUser string) (map[string]any, error) {
	if !c.caps.Has(CapRouting) {
		return nil, &ProtocolError{Msg: "routing requires Bolt 4.3 or newer"}
	}
	if err := c.assertState(connReady); err != nil {
		return nil, err
	}
	if impersonatedUser != "" && !c.version.AtLeast(4, 4) {
		return nil, &ProtocolError{Msg: "impersonation requires Bolt 4.4 or newer"}
	}

	var table map[string]any
	c.queue.appendRoute(routingContext, bookmarks, database, impersonatedUser, c.version,
		c.expectedSuccessHandler(func(routeSuccess *success) {
			table = routeSuccess.routingTable()
		}))
	if c.queue.send(ctx); c.err != nil {
		return nil, c.err
	}
	if err := c.queue.receiveAll(ctx); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	return table, nil
}

// Telemetry reports an API usage tag. A no-op unless the version supports
// it and the server asked for it via the telemetry hint.
func (c *Connection) Telemetry(ctx context.Context, api int) error {
	if !c.caps.Has(CapTelemetry) || !c.telemetryEnabled {
		return nil
	}
	if err := c.assertState(connReady, connTx); err != nil {
		return err
	}
	c.queue.appendTelemetry(api, c.expectedSuccessHandler(onSuccessNoOp))
	if c.queue.send(ctx); c.err != nil {
		return c.err
	}
	if err := c.queue.receiveAll(ctx); err != nil {
		return err
	}
	return c.err
}

// Close sends a best-effort GOODBYE and releases the socket. Safe to call
// more than once and in any state.
func (c *Connection) Close(ctx context.Context) {
	if c.closed {
		return
	}
	c.closed = true
	c.connected = false
	c.log.Infof(log.Connection, c.logId, "close")
	if c.state != connDead {
		c.state = connDead
		c.queue.appendGoodbye()
		c.queue.send(ctx)
	}
	if err := c.conn.Close(); err != nil {
		c.log.Warnf(log.Connection, c.logId, "could not close underlying socket")
	}
}

// Bookmark returns the most recent causal checkpoint reported by the
// server, empty until a transaction produced one.
func (c *Connection) Bookmark() string {
	return c.bookmark
}

// Metadata returns what the server reported at authentication time, nil
// before the connection is established.
func (c *Connection) Metadata() *Metadata {
	return c.metadata
}

func (c *Connection) IsConnected() bool {
	return c.connected
}

// IsAlive reports whether the connection can still be used, possibly after
// a Reset.
func (c *Connection) IsAlive() bool {
	return c.state != connDead && !c.closed
}

// HasFailed reports whether the connection needs a Reset before further
// use.
func (c *Connection) HasFailed() bool {
	return c.state == connFailed
}

func (c *Connection) Version() Version {
	return c.version
}

func (c *Connection) Capabilities() Capabilities {
	return c.caps
}

func (c *Connection) ServerName() string {
	return c.serverName
}

func (c *Connection) Birthdate() time.Time {
	return c.birthDate
}

func (c *Connection) IdleDate() time.Time {
	return c.idleDate
}

func (c *Connection) expectedSuccessHandler(onSuccess func(*success)) responseHandler {
	return responseHandler{
		onSuccess: func(msg *success) {
			c.noteBookmark(msg)
			onSuccess(msg)
		},
		onFailure: c.onFailure,
		onIgnored: onIgnoredNoOp,
	}
}

func (c *Connection) helloResponseHandler() responseHandler {
	return c.expectedSuccessHandler(c.onHelloSuccess)
}

func (c *Connection) logonResponseHandler() responseHandler {
	return c.expectedSuccessHandler(onSuccessNoOp)
}

func (c *Connection) onHelloSuccess(helloSuccess *success) {
	c.metadata = metadataFrom(helloSuccess)
	if c.metadata.ConnectionId != "" {
		c.logId = fmt.Sprintf("%s@%s", c.metadata.ConnectionId, c.serverName)
		c.queue.setLogId(c.logId)
	}
	c.applyHints(c.metadata.Hints)
}

// applyHints picks up the configuration hints the server sent along with
// the HELLO response.
func (c *Connection) applyHints(hints map[string]any) {
	if readTimeout, ok := hints[readTimeoutHintName].(int64); ok {
		if readTimeout > 0 {
			c.queue.in.readTimeout = time.Duration(readTimeout) * time.Second
		} else {
			c.log.Infof(log.Connection, c.logId, "invalid %q hint value: %d, ignoring", readTimeoutHintName, readTimeout)
		}
	}
	if telemetry, ok := hints[telemetryHintName].(bool); ok {
		c.telemetryEnabled = telemetry
	}
}

func (c *Connection) runResponseHandler(stream *Stream) responseHandler {
	return c.expectedSuccessHandler(func(runSuccess *success) {
		stream.attached = true
		stream.keys = runSuccess.fields()
		stream.qid = runSuccess.qid()
		stream.tfirst = runSuccess.tfirst()
		if stream.qid > -1 {
			c.lastQid = stream.qid
		}
		c.streams.attach(stream)
	})
}

func (c *Connection) pullResponseHandler(stream *Stream) responseHandler {
	return responseHandler{
		onRecord: func(record *Record) {
			if stream.discarding {
				stream.emptyRecords()
			} else {
				record.Keys = stream.keys
				stream.push(record)
			}
			c.queue.pushFront(c.pullResponseHandler(stream))
		},
		onIgnored: func(*ignored) {
			stream.err = &ServiceError{Msg: "stream interrupted while pulling results"}
			c.streams.remove(stream)
			c.checkStreams()
		},
		onSuccess: func(pullSuccess *success) {
			if stream.discarding {
				stream.emptyRecords()
			}
			if pullSuccess.hasMore() {
				stream.endOfBatch = true
				return
			}
			c.endStream(stream, pullSuccess)
		},
		onFailure: func(ctx context.Context, failure *ServerError) {
			stream.err = failure
			c.onFailure(ctx, failure) // Detaches the stream
		},
	}
}

func (c *Connection) discardResponseHandler(stream *Stream) responseHandler {
	return responseHandler{
		onIgnored: func(*ignored) {
			stream.err = &ServiceError{Msg: "stream interrupted while discarding results"}
			c.streams.remove(stream)
			c.checkStreams()
		},
		onSuccess: func(discardSuccess *success) {
			if discardSuccess.hasMore() {
				stream.endOfBatch = true
				return
			}
			c.endStream(stream, discardSuccess)
		},
		onFailure: func(ctx context.Context, failure *ServerError) {
			stream.err = failure
			c.onFailure(ctx, failure) // Detaches the stream
		},
	}
}

// endStream finalizes a stream from its terminal SUCCESS.
func (c *Connection) endStream(stream *Stream, msg *success) {
	summary := msg.summary()
	summary.TFirst = stream.tfirst
	c.noteBookmark(msg)
	stream.sum = summary
	c.streams.remove(stream)
	c.checkStreams()
}
