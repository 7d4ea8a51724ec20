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

import "container/list"

// Stream is a handle to one result stream on a connection. Several streams
// may be open at once within a transaction, addressed by query id. All
// operations on a stream go through its connection.
type Stream struct {
	keys       []string
	fifo       list.List // List[*Record], records buffered ahead of the consumer
	sum        *Summary
	err        error
	qid        int64
	tfirst     int64
	fetchSize  int
	attached   bool
	endOfBatch bool
	discarding bool
}

// Keys returns the column names of the stream.
func (s *Stream) Keys() []string {
	return s.keys
}

// Err returns the error that terminated the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// bufferedNext serves from buffered data. The first return value reports
// whether buffered state could answer.
func (s *Stream) bufferedNext() (bool, *Record, *Summary, error) {
	if e := s.fifo.Front(); e != nil {
		s.fifo.Remove(e)
		return true, e.Value.(*Record), nil, nil
	}
	if s.err != nil {
		return true, nil, nil, s.err
	}
	if s.sum != nil {
		return true, nil, s.sum, nil
	}
	return false, nil, nil, nil
}

func (s *Stream) push(rec *Record) {
	s.fifo.PushBack(rec)
}

func (s *Stream) emptyRecords() {
	s.fifo.Init()
}

// openStreams tracks the streams attached to a connection and which one is
// currently receiving.
type openStreams struct {
	curr *Stream
	open map[*Stream]bool
}

func (o *openStreams) attach(s *Stream) {
	if o.open == nil {
		o.open = map[*Stream]bool{}
	}
	o.open[s] = true
	o.curr = s
}

func (o *openStreams) remove(s *Stream) {
	delete(o.open, s)
	if o.curr == s {
		o.curr = nil
	}
}

// detach aborts the current stream with an error.
func (o *openStreams) detach(err error) {
	if o.curr == nil {
		return
	}
	o.curr.err = err
	o.remove(o.curr)
}

func (o *openStreams) pause() {
	o.curr = nil
}

func (o *openStreams) resume(s *Stream) {
	o.curr = s
}

// reset invalidates every stream, used at transaction boundaries.
func (o *openStreams) reset() {
	for s := range o.open {
		delete(o.open, s)
	}
	o.curr = nil
}

func (o *openStreams) num() int {
	return len(o.open)
}

// isSafe reports whether the stream belongs to this connection's current
// scope.
func (o *openStreams) isSafe(s *Stream) error {
	if o.open[s] {
		return nil
	}
	return &ServiceError{Msg: "the stream is not valid on this connection anymore"}
}
