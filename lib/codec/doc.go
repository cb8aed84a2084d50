// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by
// every DbLogger component that puts bytes on the wire.
//
// The only wire protocol today is the producer→viewer pipe (see
// lib/pipe). Keeping the encoder and decoder modes here means the two
// processes on either end of the socket always agree on the encoding,
// even when they are built from different checkouts.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Wire types carry `cbor` struct tags only. They are never rendered as
// JSON.
package codec
