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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialerPlain(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	d := Dialer{Timeout: time.Second}
	conn, err := d.Dial(context.Background(), l.Addr().String())
	require.NoError(t, err)
	_ = conn.Close()
}

func TestDialerRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := l.Addr().String()
	require.NoError(t, l.Close())

	d := Dialer{Timeout: time.Second}
	_, err = d.Dial(context.Background(), address)
	require.Error(t, err)
	connErr := &ConnectionError{}
	assert.ErrorAs(t, err, &connErr)
}

// The breaker opens after repeated dial failures and rejects further
// attempts without touching the network.
func TestDialerBreakerOpens(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := l.Addr().String()
	require.NoError(t, l.Close())

	d := Dialer{
		Timeout: time.Second,
		Breaker: NewDialBreaker("test", 1, time.Minute, time.Minute),
	}
	for i := 0; i < 3; i++ {
		_, err = d.Dial(context.Background(), address)
		require.Error(t, err)
	}
	_, err = d.Dial(context.Background(), address)
	require.Error(t, err)
	connErr := &ConnectionError{}
	assert.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "dial rejected")
}
