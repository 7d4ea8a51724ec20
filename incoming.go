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
	"time"

	"github.com/graphwire/bolt/internal/racing"
)

// incoming accumulates inbound bytes into whole messages and hands them to
// the hydrator. The message buffer is reused between reads.
type incoming struct {
	buf         []byte
	hyd         hydrator
	readTimeout time.Duration
}

func (i *incoming) next(ctx context.Context, rd racing.Reader) (any, error) {
	buf, err := dechunkMessage(ctx, rd, i.buf, i.readTimeout)
	i.buf = buf
	if err != nil {
		return nil, err
	}
	return i.hyd.message(buf)
}
