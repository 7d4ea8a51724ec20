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

// Package packstream encodes and decodes values and tagged structures
// to and from the PackStream binary format.
package packstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

// StructTag is the signature byte of a PackStream structure.
type StructTag byte

// Struct is a tagged tuple, the building block of every protocol message.
type Struct struct {
	Tag    StructTag
	Fields []any
}

// Dehydrate lets the caller encode custom types as structures not known
// to packstream. Invoked when Pack meets an unknown struct type.
type Dehydrate func(x any) (*Struct, error)

type Packer struct {
	wr        io.Writer
	dehydrate Dehydrate
}

func NewPacker(wr io.Writer, dehydrate Dehydrate) *Packer {
	if dehydrate == nil {
		dehydrate = func(x any) (*Struct, error) {
			return nil, &UnsupportedTypeError{t: reflect.TypeOf(x)}
		}
	}
	return &Packer{wr: wr, dehydrate: dehydrate}
}

// PackStruct packs a structure with the given signature and fields.
func (p *Packer) PackStruct(tag StructTag, fields ...any) error {
	return p.writeStruct(&Struct{Tag: tag, Fields: fields})
}

func (p *Packer) write(buf []byte) error {
	if _, err := p.wr.Write(buf); err != nil {
		return &IoError{inner: err}
	}
	return nil
}

func (p *Packer) writeStruct(s *Struct) error {
	if len(s.Fields) > 0x0f {
		return &OverflowError{msg: "trying to pack struct with too many fields"}
	}
	if err := p.write([]byte{0xb0 + byte(len(s.Fields)), byte(s.Tag)}); err != nil {
		return err
	}
	for _, f := range s.Fields {
		if err := p.Pack(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) writeInt(i int64) error {
	switch {
	case int64(-0x10) <= i && i < int64(0x80):
		return p.write([]byte{byte(i)})
	case int64(-0x80) <= i && i < int64(-0x10):
		return p.write([]byte{0xc8, byte(i)})
	case int64(-0x8000) <= i && i < int64(0x8000):
		buf := [3]byte{0xc9}
		binary.BigEndian.PutUint16(buf[1:], uint16(i))
		return p.write(buf[:])
	case int64(-0x80000000) <= i && i < int64(0x80000000):
		buf := [5]byte{0xca}
		binary.BigEndian.PutUint32(buf[1:], uint32(i))
		return p.write(buf[:])
	default:
		buf := [9]byte{0xcb}
		binary.BigEndian.PutUint64(buf[1:], uint64(i))
		return p.write(buf[:])
	}
}

func (p *Packer) writeFloat(f float64) error {
	buf := [9]byte{0xc1}
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	return p.write(buf[:])
}

// Shared header layout for strings (0x80/0xd0), lists (0x90/0xd4) and
// maps (0xa0/0xd8).
func (p *Packer) writeHeader(ll int, shortOffset, longOffset byte) error {
	l := int64(ll)
	if l < 0x10 {
		return p.write([]byte{shortOffset + byte(l)})
	}
	switch {
	case l < 0x100:
		return p.write([]byte{longOffset, byte(l)})
	case l < 0x10000:
		hdr := [3]byte{longOffset + 1}
		binary.BigEndian.PutUint16(hdr[1:], uint16(l))
		return p.write(hdr[:])
	case l < math.MaxUint32:
		hdr := [5]byte{longOffset + 2}
		binary.BigEndian.PutUint32(hdr[1:], uint32(l))
		return p.write(hdr[:])
	default:
		return &OverflowError{msg: fmt.Sprintf("trying to pack too large collection of size %d", l)}
	}
}

func (p *Packer) writeString(s string) error {
	if err := p.writeHeader(len(s), 0x80, 0xd0); err != nil {
		return err
	}
	return p.write([]byte(s))
}

func (p *Packer) writeListHeader(l int) error {
	return p.writeHeader(l, 0x90, 0xd4)
}

func (p *Packer) writeMapHeader(l int) error {
	return p.writeHeader(l, 0xa0, 0xd8)
}

func (p *Packer) writeBytes(b []byte) error {
	l := int64(len(b))
	var err error
	switch {
	case l < 0x100:
		err = p.write([]byte{0xcc, byte(l)})
	case l < 0x10000:
		hdr := [3]byte{0xcd}
		binary.BigEndian.PutUint16(hdr[1:], uint16(l))
		err = p.write(hdr[:])
	case l < 0x100000000:
		hdr := [5]byte{0xce}
		binary.BigEndian.PutUint32(hdr[1:], uint32(l))
		err = p.write(hdr[:])
	default:
		return &OverflowError{msg: fmt.Sprintf("trying to pack too large byte array of size %d", l)}
	}
	if err != nil {
		return err
	}
	return p.write(b)
}

func (p *Packer) writeBool(b bool) error {
	if b {
		return p.write([]byte{0xc3})
	}
	return p.write([]byte{0xc2})
}

func (p *Packer) writeNil() error {
	return p.write([]byte{0xc0})
}

func (p *Packer) tryDehydrate(x any) error {
	s, err := p.dehydrate(x)
	if err != nil {
		return err
	}
	if s == nil {
		return p.writeNil()
	}
	return p.writeStruct(s)
}

func (p *Packer) writeSlice(x any) error {
	// Fast paths for the slices the protocol core actually produces,
	// reflection for the rest.
	switch v := x.(type) {
	case []byte:
		return p.writeBytes(v)
	case []any:
		if err := p.writeListHeader(len(v)); err != nil {
			return err
		}
		for _, s := range v {
			if err := p.Pack(s); err != nil {
				return err
			}
		}
		return nil
	case []string:
		if err := p.writeListHeader(len(v)); err != nil {
			return err
		}
		for _, s := range v {
			if err := p.writeString(s); err != nil {
				return err
			}
		}
		return nil
	case []int64:
		if err := p.writeListHeader(len(v)); err != nil {
			return err
		}
		for _, s := range v {
			if err := p.writeInt(s); err != nil {
				return err
			}
		}
		return nil
	case []float64:
		if err := p.writeListHeader(len(v)); err != nil {
			return err
		}
		for _, s := range v {
			if err := p.writeFloat(s); err != nil {
				return err
			}
		}
		return nil
	default:
		rv := reflect.ValueOf(x)
		num := rv.Len()
		if err := p.writeListHeader(num); err != nil {
			return err
		}
		for i := 0; i < num; i++ {
			if err := p.Pack(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *Packer) writeMap(x any) error {
	switch v := x.(type) {
	case map[string]any:
		if err := p.writeMapHeader(len(v)); err != nil {
			return err
		}
		for k, e := range v {
			if err := p.writeString(k); err != nil {
				return err
			}
			if err := p.Pack(e); err != nil {
				return err
			}
		}
		return nil
	case map[string]string:
		if err := p.writeMapHeader(len(v)); err != nil {
			return err
		}
		for k, e := range v {
			if err := p.writeString(k); err != nil {
				return err
			}
			if err := p.writeString(e); err != nil {
				return err
			}
		}
		return nil
	case map[string]int:
		if err := p.writeMapHeader(len(v)); err != nil {
			return err
		}
		for k, e := range v {
			if err := p.writeString(k); err != nil {
				return err
			}
			if err := p.writeInt(int64(e)); err != nil {
				return err
			}
		}
		return nil
	default:
		rv := reflect.ValueOf(x)
		if err := p.writeMapHeader(rv.Len()); err != nil {
			return err
		}
		iter := rv.MapRange()
		for iter.Next() {
			if iter.Key().Kind() != reflect.String {
				return &UnsupportedTypeError{t: reflect.TypeOf(x)}
			}
			if err := p.writeString(iter.Key().String()); err != nil {
				return err
			}
			if err := p.Pack(iter.Value().Interface()); err != nil {
				return err
			}
		}
		return nil
	}
}

func overflowInt(i uint64) error {
	if i > math.MaxInt64 {
		return &OverflowError{msg: "trying to pack uint64 that doesn't fit into int64"}
	}
	return nil
}

// Pack encodes x. Integers, floats, booleans, strings, byte slices, nil,
// slices, string-keyed maps and *Struct are handled natively, other struct
// values and struct pointers go through the dehydrate hook. Any other type
// fails with an UnsupportedTypeError.
func (p *Packer) Pack(x any) error {
	if x == nil {
		return p.writeNil()
	}

	t := reflect.ValueOf(x)
	switch t.Kind() {
	case reflect.Bool:
		return p.writeBool(t.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return p.writeInt(t.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := t.Uint()
		if err := overflowInt(u); err != nil {
			return err
		}
		return p.writeInt(int64(u))
	case reflect.Float32, reflect.Float64:
		return p.writeFloat(t.Float())
	case reflect.String:
		return p.writeString(t.String())
	case reflect.Ptr:
		if t.IsNil() {
			return p.writeNil()
		}
		if reflect.Indirect(t).Kind() == reflect.Struct {
			if s, isStruct := x.(*Struct); isStruct {
				return p.writeStruct(s)
			}
			return p.tryDehydrate(x)
		}
		return p.Pack(reflect.Indirect(t).Interface())
	case reflect.Struct:
		return p.tryDehydrate(x)
	case reflect.Slice:
		return p.writeSlice(x)
	case reflect.Map:
		return p.writeMap(x)
	}
	return &UnsupportedTypeError{t: reflect.TypeOf(x)}
}
