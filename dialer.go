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
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/graphwire/bolt/log"
)

// Dialer establishes the socket a connection runs over: TCP with an
// optional TLS layer. The protocol core above only sees the net.Conn.
type Dialer struct {
	Network   string // Default "tcp"
	Timeout   time.Duration
	KeepAlive bool

	// TLS, off unless Encrypted is set. With a nil Validator the standard
	// chain verification against RootCAs (or the system roots) applies.
	Encrypted bool
	RootCAs   *x509.CertPool
	Validator CertValidator

	// Optional circuit breaker guarding dial attempts against a flapping
	// server.
	Breaker *gobreaker.CircuitBreaker[net.Conn]

	Log log.Logger
}

// NewDialBreaker returns a circuit breaker suitable for guarding dials.
func NewDialBreaker(name string, maxRequests uint32, interval, timeout time.Duration) *gobreaker.CircuitBreaker[net.Conn] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
	return gobreaker.NewCircuitBreaker[net.Conn](settings)
}

// Dial opens the socket, guarded by the circuit breaker when one is set.
func (d Dialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	if d.Breaker == nil {
		return d.dial(ctx, address)
	}
	conn, err := d.Breaker.Execute(func() (net.Conn, error) {
		return d.dial(ctx, address)
	})
	if err != nil && conn == nil {
		if _, isConnErr := err.(*ConnectionError); !isConnErr {
			err = wrapConnectionError("dial rejected", err)
		}
	}
	return conn, err
}

func (d Dialer) dial(ctx context.Context, address string) (net.Conn, error) {
	network := d.Network
	if network == "" {
		network = "tcp"
	}
	dialer := net.Dialer{Timeout: d.Timeout}
	if !d.KeepAlive {
		dialer.KeepAlive = -1 * time.Second // Turns keep-alive off
	}

	if d.Log != nil {
		d.Log.Debugf(log.Dialer, address, "dialing %s, encrypted: %t", network, d.Encrypted)
	}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, wrapConnectionError("dial failed", err)
	}
	if !d.Encrypted {
		return conn, nil
	}

	tlsConn, err := d.wrapTLS(ctx, conn, address)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (d Dialer) wrapTLS(ctx context.Context, conn net.Conn, address string) (net.Conn, error) {
	serverName, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, wrapConnectionError("invalid address", err)
	}
	port, _ := strconv.Atoi(portStr)

	config := &tls.Config{RootCAs: d.RootCAs, ServerName: serverName}
	if d.Validator != nil {
		// Chain verification is replaced by the validator's judgement of
		// the leaf certificate fingerprint.
		config.InsecureSkipVerify = true
		config.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return &ConnectionError{Msg: "server presented no certificate"}
			}
			fp := fingerprint(rawCerts[0])
			if !d.Validator.ShouldTrust(serverName, port, fp) {
				return &ConnectionError{Msg: "server certificate is not trusted: " + fp}
			}
			d.Validator.DidTrust(serverName, port, fp)
			return nil
		}
	}

	tlsConn := tls.Client(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		if err == io.EOF {
			// Give a bit nicer error message
			return nil, &ConnectionError{Msg: "remote end closed the connection, check that TLS is enabled on the server"}
		}
		return nil, wrapConnectionError("TLS handshake failed", err)
	}
	return tlsConn, nil
}

// fingerprint renders the SHA-1 digest of a raw certificate in hex.
func fingerprint(rawCert []byte) string {
	digest := sha1.Sum(rawCert)
	return hex.EncodeToString(digest[:])
}
