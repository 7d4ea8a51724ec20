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

// Node is a graph node as it appears inside RECORD values.
type Node struct {
	Id        int64
	ElementId string // Only present on 5.x servers
	Labels    []string
	Props     map[string]any
}

// Relationship connects two nodes.
type Relationship struct {
	Id        int64
	ElementId string
	StartId   int64
	EndId     int64
	Type      string
	Props     map[string]any
}

// RelNode is a relationship without endpoints, used within paths.
type RelNode struct {
	Id        int64
	ElementId string
	Type      string
	Props     map[string]any
}

// Path is an alternating sequence of nodes and relationships.
type Path struct {
	Nodes    []*Node
	RelNodes []*RelNode
	Indexes  []int
}
