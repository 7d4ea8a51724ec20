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
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// CertValidator decides whether to trust a server certificate, identified
// by the SHA-1 hex fingerprint of its raw bytes. DidTrust is invoked after
// a fingerprint passed, letting stateful validators record it.
type CertValidator interface {
	ShouldTrust(host string, port int, fingerprint string) bool
	DidTrust(host string, port int, fingerprint string)
}

// TrustAll accepts any certificate. For test setups only.
type TrustAll struct{}

func (TrustAll) ShouldTrust(string, int, string) bool { return true }
func (TrustAll) DidTrust(string, int, string)         {}

// TrustPinned accepts only certificates whose fingerprint appears in the
// configured list.
type TrustPinned struct {
	Fingerprints []string
}

func (t TrustPinned) ShouldTrust(_ string, _ int, fp string) bool {
	for _, pinned := range t.Fingerprints {
		if strings.EqualFold(pinned, fp) {
			return true
		}
	}
	return false
}

func (t TrustPinned) DidTrust(string, int, string) {}

// TrustOnFirstUse accepts the first certificate a host presents and pins
// it to a file, rejecting any different certificate afterwards. The file
// maps "host:port" to a fingerprint, one entry per line, and is shared
// between processes under a file lock. Entries are never overwritten.
type TrustOnFirstUse struct {
	Path string

	mu sync.Mutex
}

func (t *TrustOnFirstUse) key(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

func (t *TrustOnFirstUse) ShouldTrust(host string, port int, fp string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock := flock.New(t.Path + ".lock")
	if err := lock.Lock(); err != nil {
		return false
	}
	defer lock.Unlock()

	known, err := t.load()
	if err != nil {
		return false
	}
	pinned, seen := known[t.key(host, port)]
	if !seen {
		// First use, trusted and pinned via DidTrust
		return true
	}
	return strings.EqualFold(pinned, fp)
}

func (t *TrustOnFirstUse) DidTrust(host string, port int, fp string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock := flock.New(t.Path + ".lock")
	if err := lock.Lock(); err != nil {
		return
	}
	defer lock.Unlock()

	known, err := t.load()
	if err != nil {
		return
	}
	if _, seen := known[t.key(host, port)]; seen {
		return
	}

	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = fmt.Fprintf(f, "%s %s\n", t.key(host, port), fp)
}

// load reads the pinned fingerprints. Call with the file lock held.
func (t *TrustOnFirstUse) load() (map[string]string, error) {
	known := map[string]string{}
	f, err := os.Open(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return known, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		if _, seen := known[fields[0]]; seen {
			continue
		}
		known[fields[0]] = fields[1]
	}
	return known, scanner.Err()
}
