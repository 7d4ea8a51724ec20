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

import "strings"

// Record is one row of a result stream.
type Record struct {
	Keys   []string
	Values []any
}

// Server ignored the request due to an earlier failure in the pipeline.
type ignored struct{}

// success wraps the metadata map of a SUCCESS response. The map looks
// different depending on what request the response answers, the accessors
// below extract the canonical keys.
type success struct {
	meta map[string]any
}

func (s *success) server() string {
	agent, _ := s.meta["server"].(string)
	return agent
}

func (s *success) connectionId() string {
	id, _ := s.meta["connection_id"].(string)
	return id
}

// fields returns the column names from a RUN response.
func (s *success) fields() []string {
	fieldsx, ok := s.meta["fields"].([]any)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(fieldsx))
	for _, x := range fieldsx {
		field, ok := x.(string)
		if !ok {
			return nil
		}
		fields = append(fields, field)
	}
	return fields
}

// bookmark returns the causal checkpoint carried by the response, under
// the singular key or as the last element of the plural one.
func (s *success) bookmark() string {
	if b, ok := s.meta["bookmark"].(string); ok {
		return b
	}
	if bs, ok := s.meta["bookmarks"].([]any); ok && len(bs) > 0 {
		b, _ := bs[len(bs)-1].(string)
		return b
	}
	return ""
}

func (s *success) hasMore() bool {
	more, _ := s.meta["has_more"].(bool)
	return more
}

func (s *success) qid() int64 {
	qid, ok := s.meta["qid"].(int64)
	if !ok {
		return -1
	}
	return qid
}

func (s *success) tfirst() int64 {
	t, _ := s.meta["t_first"].(int64)
	return t
}

func (s *success) hints() map[string]any {
	hints, _ := s.meta["hints"].(map[string]any)
	return hints
}

func (s *success) db() string {
	db, _ := s.meta["db"].(string)
	return db
}

// routingTable returns the raw routing table map of a ROUTE response.
func (s *success) routingTable() map[string]any {
	rt, _ := s.meta["rt"].(map[string]any)
	return rt
}

func (s *success) stats() map[string]int {
	statsx, _ := s.meta["stats"].(map[string]any)
	if len(statsx) == 0 {
		return nil
	}
	stats := make(map[string]int, len(statsx))
	for k, v := range statsx {
		c, _ := v.(int64)
		if c > 0 {
			stats[k] = int(c)
		}
	}
	return stats
}

// Notification is a server hint or warning attached to a result summary.
type Notification struct {
	Code        string
	Title       string
	Description string
	Severity    string
	Category    string
	Position    *Position
}

// Position locates a notification within the submitted statement.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (s *success) notifications() []Notification {
	notsx, ok := s.meta["notifications"].([]any)
	if !ok {
		return nil
	}
	notifications := make([]Notification, 0, len(notsx))
	for _, x := range notsx {
		m, ok := x.(map[string]any)
		if !ok {
			continue
		}
		n := Notification{}
		n.Code, _ = m["code"].(string)
		n.Title, _ = m["title"].(string)
		n.Description, _ = m["description"].(string)
		n.Severity, _ = m["severity"].(string)
		n.Category, _ = m["category"].(string)
		if posx, ok := m["position"].(map[string]any); ok {
			pos := &Position{}
			if v, ok := posx["offset"].(int64); ok {
				pos.Offset = int(v)
			}
			if v, ok := posx["line"].(int64); ok {
				pos.Line = int(v)
			}
			if v, ok := posx["column"].(int64); ok {
				pos.Column = int(v)
			}
			n.Position = pos
		}
		notifications = append(notifications, n)
	}
	return notifications
}

// Summary describes a completed result stream.
type Summary struct {
	Bookmark      string
	StatementType string
	TFirst        int64
	TLast         int64
	Stats         map[string]int
	Notifications []Notification
}

// summary extracts the end-of-stream metadata.
func (s *success) summary() *Summary {
	tlast, _ := s.meta["t_last"].(int64)
	qtype, _ := s.meta["type"].(string)
	return &Summary{
		Bookmark:      s.bookmark(),
		StatementType: qtype,
		TLast:         tlast,
		Stats:         s.stats(),
		Notifications: s.notifications(),
	}
}

// Metadata is what the server reported about itself at authentication.
type Metadata struct {
	Agent        string
	Server       string // version token after the first "/" in Agent
	ConnectionId string
	Hints        map[string]any
}

func metadataFrom(s *success) *Metadata {
	agent := s.server()
	server := agent
	if i := strings.Index(agent, "/"); i >= 0 {
		server = agent[i+1:]
	}
	return &Metadata{
		Agent:        agent,
		Server:       server,
		ConnectionId: s.connectionId(),
		Hints:        s.hints(),
	}
}
