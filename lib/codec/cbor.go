// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding. Same logical data always produces identical bytes.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Unknown fields are silently ignored so
// an older viewer can read items from a newer producer.
var decMode cbor.DecMode

// maxNestedLevels bounds decoder recursion. Pipe items are two levels
// deep; anything much deeper is not ours.
const maxNestedLevels = 16

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Decoding into any must yield map[string]any rather than
		// map[interface{}]interface{} so diagnostics and tests can
		// treat decoded values like JSON objects.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		MaxNestedLevels: maxNestedLevels,
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// RawMessage is a raw encoded CBOR value. Decoding into a RawMessage
// first lets a reader keep the bytes around for diagnostics when the
// typed decode fails.
type RawMessage = cbor.RawMessage

// NewEncoder returns a CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
