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
	"fmt"

	"github.com/graphwire/bolt/internal/packstream"
	"github.com/graphwire/bolt/log"
)

// hydrator decodes a complete message buffer into one of the response
// types: *success, *Record, *ignored or *ServerError. Graph structures
// nested inside records hydrate into the types of graph.go.
type hydrator struct {
	wireLog log.WireLogger
	logId   string
}

func (h *hydrator) message(buf []byte) (any, error) {
	rd := bytes.NewReader(buf)
	unpacker := packstream.NewUnpacker(rd)
	x, err := unpacker.UnpackStruct(h.hydrate)
	if err != nil {
		return nil, err
	}
	if rd.Len() > 0 {
		return nil, &ProtocolError{Msg: fmt.Sprintf("%d unexpected trailing bytes in message", rd.Len())}
	}
	switch msg := x.(type) {
	case *success, *Record, *ignored, *ServerError:
		h.trace(msg)
		return msg, nil
	}
	return nil, &ProtocolError{Msg: fmt.Sprintf("unexpected message type %T", x)}
}

func (h *hydrator) trace(msg any) {
	if h.wireLog == nil {
		return
	}
	switch m := msg.(type) {
	case *success:
		h.wireLog.LogServerMessage(h.logId, "SUCCESS %v", m.meta)
	case *Record:
		h.wireLog.LogServerMessage(h.logId, "RECORD %v", m.Values)
	case *ignored:
		h.wireLog.LogServerMessage(h.logId, "IGNORED")
	case *ServerError:
		h.wireLog.LogServerMessage(h.logId, "FAILURE %s %q", m.Code, m.Msg)
	}
}

func (h *hydrator) hydrate(tag packstream.StructTag, fields []any) (any, error) {
	switch tag {
	case msgSuccess:
		return hydrateSuccess(fields)
	case msgRecord:
		return hydrateRecord(fields)
	case msgIgnored:
		if len(fields) != 0 {
			return nil, &ProtocolError{Msg: "ignored hydrate error"}
		}
		return &ignored{}, nil
	case msgFailure:
		return hydrateFailure(fields)
	case structNode:
		return hydrateNode(fields)
	case structRelationship:
		return hydrateRelationship(fields)
	case structRelNode:
		return hydrateRelNode(fields)
	case structPath:
		return hydratePath(fields)
	default:
		return nil, &ProtocolError{Msg: fmt.Sprintf("unknown structure signature: %02x", byte(tag))}
	}
}

func hydrateSuccess(fields []any) (any, error) {
	if len(fields) != 1 {
		return nil, &ProtocolError{Msg: "success hydrate error"}
	}
	meta, ok := fields[0].(map[string]any)
	if !ok {
		return nil, &ProtocolError{Msg: "success hydrate error"}
	}
	return &success{meta: meta}, nil
}

func hydrateRecord(fields []any) (any, error) {
	if len(fields) != 1 {
		return nil, &ProtocolError{Msg: "record hydrate error"}
	}
	values, ok := fields[0].([]any)
	if !ok {
		return nil, &ProtocolError{Msg: "record hydrate error"}
	}
	return &Record{Values: values}, nil
}

func hydrateFailure(fields []any) (any, error) {
	if len(fields) != 1 {
		return nil, &ProtocolError{Msg: "failure hydrate error"}
	}
	m, ok := fields[0].(map[string]any)
	if !ok {
		return nil, &ProtocolError{Msg: "failure hydrate error"}
	}
	code, cok := m["code"].(string)
	msg, mok := m["message"].(string)
	if !cok || !mok {
		return nil, &ProtocolError{Msg: "failure hydrate error"}
	}
	return &ServerError{Code: code, Msg: msg}, nil
}

// Nodes come with three fields, 5.x servers append the element id.
func hydrateNode(fields []any) (any, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return nil, &ProtocolError{Msg: "node hydrate error"}
	}
	id, idok := fields[0].(int64)
	labelsx, lok := fields[1].([]any)
	props, pok := fields[2].(map[string]any)
	if !idok || !lok || !pok {
		return nil, &ProtocolError{Msg: "node hydrate error"}
	}
	n := &Node{Id: id, Props: props, Labels: make([]string, len(labelsx))}
	for i, x := range labelsx {
		label, ok := x.(string)
		if !ok {
			return nil, &ProtocolError{Msg: "node hydrate error"}
		}
		n.Labels[i] = label
	}
	if len(fields) == 4 {
		n.ElementId, _ = fields[3].(string)
	}
	return n, nil
}

func hydrateRelationship(fields []any) (any, error) {
	if len(fields) != 5 && len(fields) != 8 {
		return nil, &ProtocolError{Msg: "relationship hydrate error"}
	}
	id, idok := fields[0].(int64)
	startId, sok := fields[1].(int64)
	endId, eok := fields[2].(int64)
	relType, tok := fields[3].(string)
	props, pok := fields[4].(map[string]any)
	if !idok || !sok || !eok || !tok || !pok {
		return nil, &ProtocolError{Msg: "relationship hydrate error"}
	}
	r := &Relationship{Id: id, StartId: startId, EndId: endId, Type: relType, Props: props}
	if len(fields) == 8 {
		r.ElementId, _ = fields[5].(string)
	}
	return r, nil
}

func hydrateRelNode(fields []any) (any, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return nil, &ProtocolError{Msg: "relationship hydrate error"}
	}
	id, idok := fields[0].(int64)
	relType, tok := fields[1].(string)
	props, pok := fields[2].(map[string]any)
	if !idok || !tok || !pok {
		return nil, &ProtocolError{Msg: "relationship hydrate error"}
	}
	r := &RelNode{Id: id, Type: relType, Props: props}
	if len(fields) == 4 {
		r.ElementId, _ = fields[3].(string)
	}
	return r, nil
}

func hydratePath(fields []any) (any, error) {
	if len(fields) != 3 {
		return nil, &ProtocolError{Msg: "path hydrate error"}
	}
	nodesx, nok := fields[0].([]any)
	relsx, rok := fields[1].([]any)
	indsx, iok := fields[2].([]any)
	if !nok || !rok || !iok {
		return nil, &ProtocolError{Msg: "path hydrate error"}
	}

	nodes := make([]*Node, len(nodesx))
	for i, x := range nodesx {
		n, ok := x.(*Node)
		if !ok {
			return nil, &ProtocolError{Msg: "path hydrate error"}
		}
		nodes[i] = n
	}
	relNodes := make([]*RelNode, len(relsx))
	for i, x := range relsx {
		r, ok := x.(*RelNode)
		if !ok {
			return nil, &ProtocolError{Msg: "path hydrate error"}
		}
		relNodes[i] = r
	}
	indexes := make([]int, len(indsx))
	for i, x := range indsx {
		ind, ok := x.(int64)
		if !ok {
			return nil, &ProtocolError{Msg: "path hydrate error"}
		}
		indexes[i] = int(ind)
	}
	// Pairs of (relationship index, node index)
	if len(indexes)%2 == 1 {
		return nil, &ProtocolError{Msg: "path hydrate error"}
	}
	return &Path{Nodes: nodes, RelNodes: relNodes, Indexes: indexes}, nil
}
