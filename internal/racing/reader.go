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

// Package racing provides context-aware I/O over plain readers and writers.
// Blocking calls race against the context so that cancellation and deadlines
// interrupt a stuck socket. A call abandoned this way leaves the underlying
// stream in an undefined position, the connection must be discarded.
package racing

import (
	"context"
	"io"
	"time"
)

type Reader interface {
	Read(ctx context.Context, bytes []byte) (int, error)
	ReadFull(ctx context.Context, bytes []byte) (int, error)
}

func NewReader(reader io.Reader) Reader {
	return &racingReader{reader: reader}
}

type racingReader struct {
	reader io.Reader
}

type ioResult struct {
	n   int
	err error
}

func (r *racingReader) Read(ctx context.Context, bytes []byte) (int, error) {
	return r.race(ctx, bytes, read)
}

func (r *racingReader) ReadFull(ctx context.Context, bytes []byte) (int, error) {
	return r.race(ctx, bytes, readFull)
}

func (r *racingReader) race(ctx context.Context, bytes []byte, readFn func(io.Reader, []byte) (int, error)) (int, error) {
	deadline, hasDeadline := ctx.Deadline()
	err := ctx.Err()
	switch {
	case !hasDeadline && err == nil:
		return readFn(r.reader, bytes)
	case deadline.Before(time.Now()) || err != nil:
		return 0, wrapCtxErr(ctx)
	}
	resultChan := make(chan *ioResult, 1)
	go func() {
		n, err := readFn(r.reader, bytes)
		resultChan <- &ioResult{n: n, err: err}
	}()
	select {
	case <-ctx.Done():
		return 0, wrapCtxErr(ctx)
	case result := <-resultChan:
		return result.n, result.err
	}
}

func read(reader io.Reader, bytes []byte) (int, error) {
	return reader.Read(bytes)
}

func readFull(reader io.Reader, bytes []byte) (int, error) {
	return io.ReadFull(reader, bytes)
}

func wrapCtxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.DeadlineExceeded
}
