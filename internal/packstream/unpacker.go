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

package packstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Hydrate turns a decoded structure into something usable by the consumer.
// Invoked by the unpacker for every structure encountered, innermost first.
type Hydrate func(tag StructTag, fields []any) (any, error)

type Unpacker struct {
	rd io.Reader
}

func NewUnpacker(rd io.Reader) *Unpacker {
	return &Unpacker{rd: rd}
}

func (u *Unpacker) read(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(u.rd, buf); err != nil {
		return nil, &IoError{inner: err}
	}
	return buf, nil
}

func (u *Unpacker) readNum(x any) error {
	if err := binary.Read(u.rd, binary.BigEndian, x); err != nil {
		return &IoError{inner: err}
	}
	return nil
}

func (u *Unpacker) readStr(n uint32) (any, error) {
	buf, err := u.read(n)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (u *Unpacker) readList(hydrate Hydrate, n uint32) ([]any, error) {
	var err error
	list := make([]any, n)
	for i := range list {
		list[i], err = u.Unpack(hydrate)
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (u *Unpacker) readMap(hydrate Hydrate, n uint32) (map[string]any, error) {
	m := make(map[string]any, n)
	for i := uint32(0); i < n; i++ {
		keyx, err := u.Unpack(hydrate)
		if err != nil {
			return nil, err
		}
		key, ok := keyx.(string)
		if !ok {
			return nil, &IllegalFormatError{msg: fmt.Sprintf("map key is not string type: %T", keyx)}
		}
		valx, err := u.Unpack(hydrate)
		if err != nil {
			return nil, err
		}
		m[key] = valx
	}
	return m, nil
}

func (u *Unpacker) readStruct(hydrate Hydrate, numFields int) (any, error) {
	if numFields < 0 || numFields > 0x0f {
		return nil, &IllegalFormatError{msg: fmt.Sprintf("invalid struct size: %d", numFields)}
	}

	buf, err := u.read(1)
	if err != nil {
		return nil, err
	}
	tag := StructTag(buf[0])

	fields := make([]any, numFields)
	for i := range fields {
		fields[i], err = u.Unpack(hydrate)
		if err != nil {
			return nil, err
		}
	}
	return hydrate(tag, fields)
}

// UnpackStruct decodes one structure from the stream, hydrating it and any
// nested structures through the hydrate callback.
func (u *Unpacker) UnpackStruct(hydrate Hydrate) (any, error) {
	buf, err := u.read(1)
	if err != nil {
		return nil, err
	}
	marker := buf[0]
	if marker < 0xb0 || marker >= 0xc0 {
		return nil, &IllegalFormatError{msg: fmt.Sprintf("expected struct marker, got: %02x", marker)}
	}
	return u.readStruct(hydrate, int(marker-0xb0))
}

// Unpack decodes one value from the stream.
func (u *Unpacker) Unpack(hydrate Hydrate) (any, error) {
	buf, err := u.read(1)
	if err != nil {
		return nil, err
	}
	marker := buf[0]

	switch {
	case marker < 0x80:
		// Tiny positive int
		return int64(marker), nil
	case marker >= 0xf0:
		// Tiny negative int
		return int64(marker) - 0x100, nil
	case marker >= 0x80 && marker < 0x90:
		return u.readStr(uint32(marker - 0x80))
	case marker >= 0x90 && marker < 0xa0:
		return u.readList(hydrate, uint32(marker-0x90))
	case marker >= 0xa0 && marker < 0xb0:
		return u.readMap(hydrate, uint32(marker-0xa0))
	case marker >= 0xb0 && marker < 0xc0:
		return u.readStruct(hydrate, int(marker-0xb0))
	}

	switch marker {
	case 0xc0:
		return nil, nil
	case 0xc1:
		var f float64
		if err = u.readNum(&f); err != nil {
			return nil, err
		}
		return f, nil
	case 0xc2:
		return false, nil
	case 0xc3:
		return true, nil
	case 0xc8:
		var x int8
		if err = u.readNum(&x); err != nil {
			return nil, err
		}
		return int64(x), nil
	case 0xc9:
		var x int16
		if err = u.readNum(&x); err != nil {
			return nil, err
		}
		return int64(x), nil
	case 0xca:
		var x int32
		if err = u.readNum(&x); err != nil {
			return nil, err
		}
		return int64(x), nil
	case 0xcb:
		var x int64
		if err = u.readNum(&x); err != nil {
			return nil, err
		}
		return x, nil
	case 0xcc:
		var num uint8
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.read(uint32(num))
	case 0xcd:
		var num uint16
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.read(uint32(num))
	case 0xce:
		var num uint32
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.read(num)
	case 0xd0:
		var num uint8
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readStr(uint32(num))
	case 0xd1:
		var num uint16
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readStr(uint32(num))
	case 0xd2:
		var num uint32
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readStr(num)
	case 0xd4:
		var num uint8
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readList(hydrate, uint32(num))
	case 0xd5:
		var num uint16
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readList(hydrate, uint32(num))
	case 0xd6:
		var num uint32
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readList(hydrate, num)
	case 0xd8:
		var num uint8
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readMap(hydrate, uint32(num))
	case 0xd9:
		var num uint16
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readMap(hydrate, uint32(num))
	case 0xda:
		var num uint32
		if err = u.readNum(&num); err != nil {
			return nil, err
		}
		return u.readMap(hydrate, num)
	}

	return nil, &IllegalFormatError{msg: fmt.Sprintf("unknown marker: %02x", marker)}
}
