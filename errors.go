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
	"fmt"
	"strings"
)

// ErrorKind classifies everything that can go wrong, server-reported
// failures as well as client-side ones.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	// Client-side kinds
	ErrConnection // Socket open/close/send/receive
	ErrProtocol   // Framing, unknown signature, capability precondition
	ErrService    // Local misuse of the client
	// Server-reported kinds
	ErrAuthentication
	ErrSecurity
	ErrSyntax
	ErrDatabase
	ErrConstraint
	ErrTransaction
	ErrTransient // Retryable by callers
)

func (k ErrorKind) label() string {
	switch k {
	case ErrConnection:
		return "Connection error"
	case ErrProtocol:
		return "Protocol error"
	case ErrService:
		return "Service error"
	case ErrAuthentication:
		return "Authentication error"
	case ErrSecurity:
		return "Security error"
	case ErrSyntax:
		return "Syntax error"
	case ErrDatabase:
		return "Database error"
	case ErrConstraint:
		return "Constraint error"
	case ErrTransaction:
		return "Transaction error"
	case ErrTransient:
		return "Transient error"
	}
	return "Unknown error"
}

func (k ErrorKind) String() string {
	return k.label()
}

// ServerError is created when the server responds FAILURE to a request.
// Code is a dotted path such as "Neo.ClientError.Statement.SyntaxError".
type ServerError struct {
	Code string
	Msg  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind().label(), e.Msg, e.Code)
}

// Kind classifies the failure from its dotted code.
func (e *ServerError) Kind() ErrorKind {
	parts := strings.Split(e.Code, ".")
	if len(parts) != 4 {
		return ErrUnknown
	}
	classification, category, title := parts[1], parts[2], parts[3]
	switch classification {
	case "ClientError":
		switch category {
		case "Security":
			if strings.Contains(title, "Unauthorized") || strings.Contains(title, "Authentication") {
				return ErrAuthentication
			}
			return ErrSecurity
		case "Statement":
			if title == "SyntaxError" {
				return ErrSyntax
			}
			return ErrDatabase
		case "Schema":
			if strings.Contains(title, "Constraint") {
				return ErrConstraint
			}
			return ErrDatabase
		case "Transaction":
			return ErrTransaction
		case "Request":
			return ErrProtocol
		}
		return ErrDatabase
	case "TransientError":
		return ErrTransient
	case "DatabaseError":
		return ErrDatabase
	}
	return ErrUnknown
}

// IsRetriable reports whether a caller may retry the work on a fresh
// connection. The client itself never retries.
func (e *ServerError) IsRetriable() bool {
	return e.Kind() == ErrTransient
}

// ConnectionError represents a failure of the underlying transport.
// The connection is unusable afterwards.
type ConnectionError struct {
	Msg   string
	inner error
}

func (e *ConnectionError) Error() string {
	if e.inner != nil {
		return fmt.Sprintf("%s: %s: %s", ErrConnection.label(), e.Msg, e.inner)
	}
	return fmt.Sprintf("%s: %s", ErrConnection.label(), e.Msg)
}

func (e *ConnectionError) Unwrap() error {
	return e.inner
}

func wrapConnectionError(msg string, inner error) *ConnectionError {
	return &ConnectionError{Msg: msg, inner: inner}
}

// ProtocolError represents a violation of the wire protocol or a locally
// detected capability precondition. The connection is broken afterwards
// unless the error was raised before anything was sent.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProtocol.label(), e.Msg)
}

// ServiceError represents local misuse of the client, such as operating on
// a closed connection.
type ServiceError struct {
	Msg string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrService.label(), e.Msg)
}
