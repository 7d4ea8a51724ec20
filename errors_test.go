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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerErrorClassification(t *testing.T) {
	cases := []struct {
		code string
		kind ErrorKind
	}{
		{"Neo.ClientError.Statement.SyntaxError", ErrSyntax},
		{"Neo.ClientError.Statement.ParameterMissing", ErrDatabase},
		{"Neo.ClientError.Security.Unauthorized", ErrAuthentication},
		{"Neo.ClientError.Security.AuthenticationRateLimit", ErrAuthentication},
		{"Neo.ClientError.Security.Forbidden", ErrSecurity},
		{"Neo.ClientError.Schema.ConstraintValidationFailed", ErrConstraint},
		{"Neo.ClientError.Schema.IndexNotFound", ErrDatabase},
		{"Neo.ClientError.Transaction.TransactionNotFound", ErrTransaction},
		{"Neo.ClientError.Request.Invalid", ErrProtocol},
		{"Neo.ClientError.General.ForbiddenReadOnlyDatabase", ErrDatabase},
		{"Neo.TransientError.General.DatabaseUnavailable", ErrTransient},
		{"Neo.DatabaseError.General.UnknownError", ErrDatabase},
		{"Neo.SomethingElse.Odd.Thing", ErrUnknown},
		{"garbage", ErrUnknown},
	}
	for _, c := range cases {
		err := &ServerError{Code: c.code, Msg: "msg"}
		assert.Equal(t, c.kind, err.Kind(), c.code)
	}
}

func TestServerErrorMessageLeadsWithCategory(t *testing.T) {
	err := &ServerError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "Invalid syntax near RETUR"}
	assert.Equal(t, "Syntax error: Invalid syntax near RETUR (Neo.ClientError.Statement.SyntaxError)", err.Error())

	err = &ServerError{Code: "Neo.ClientError.Security.Unauthorized", Msg: "bad credentials"}
	assert.Contains(t, err.Error(), "Authentication error: ")
}

func TestServerErrorRetriable(t *testing.T) {
	transient := &ServerError{Code: "Neo.TransientError.General.DatabaseUnavailable", Msg: ""}
	assert.True(t, transient.IsRetriable())
	syntax := &ServerError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: ""}
	assert.False(t, syntax.IsRetriable())
}

func TestClientSideErrorLabels(t *testing.T) {
	assert.Contains(t, (&ConnectionError{Msg: "boom"}).Error(), "Connection error: boom")
	assert.Contains(t, (&ProtocolError{Msg: "boom"}).Error(), "Protocol error: boom")
	assert.Contains(t, (&ServiceError{Msg: "boom"}).Error(), "Service error: boom")
}
