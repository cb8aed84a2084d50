// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"sync"

	"github.com/zeebo/blake3"

	"github.com/dblogger/dblogger/lib/entry"
)

// Digest is a 32-byte BLAKE3 keyed hash of a statement.
type Digest [32]byte

type domainKey [32]byte

// Separate keys keep a query digest from ever equalling an invocation
// digest of the same bytes. ASCII names, zero-padded to 32 bytes.
var (
	queryDomainKey = domainKey{
		'd', 'b', 'l', 'o', 'g', 'g', 'e', 'r', '.', 's', 't', 'a', 't', 's', '.', 'q',
		'u', 'e', 'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	invocationDomainKey = domainKey{
		'd', 'b', 'l', 'o', 'g', 'g', 'e', 'r', '.', 's', 't', 'a', 't', 's', '.', 'i',
		'n', 'v', 'o', 'c', 'a', 't', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0,
	}
)

func keyedDigest(key domainKey, text string) Digest {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("stats: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(text))
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// QueryDigest returns the digest Statistics counts record's Query
// under.
func QueryDigest(record *entry.Record) Digest {
	return keyedDigest(queryDomainKey, record.Query())
}

// InvocationDigest returns the digest Statistics counts record's
// QueryAndParameters under.
func InvocationDigest(record *entry.Record) Digest {
	return keyedDigest(invocationDomainKey, record.QueryAndParameters())
}

// Counts is how many records seen so far share a record's statement.
type Counts struct {
	Query              int
	QueryAndParameters int
}

// Statistics counts records by statement. It is safe for concurrent
// use.
type Statistics struct {
	mu      sync.Mutex
	counts  map[Digest]int
	records int
}

// New returns empty Statistics.
func New() *Statistics {
	return &Statistics{counts: make(map[Digest]int)}
}

// Add counts record and returns the counts including it.
func (s *Statistics) Add(record *entry.Record) Counts {
	query := QueryDigest(record)
	invocation := InvocationDigest(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[query]++
	s.counts[invocation]++
	s.records++
	return Counts{Query: s.counts[query], QueryAndParameters: s.counts[invocation]}
}

// QueryCount returns how many added records had record's Query.
func (s *Statistics) QueryCount(record *entry.Record) int {
	digest := QueryDigest(record)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[digest]
}

// QueryAndParametersCount returns how many added records had record's
// QueryAndParameters.
func (s *Statistics) QueryAndParametersCount(record *entry.Record) int {
	digest := InvocationDigest(record)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[digest]
}

// Records returns the number of records added since the last Reset.
func (s *Statistics) Records() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Reset forgets every count.
func (s *Statistics) Reset() {
	s.mu.Lock()
	s.counts = make(map[Digest]int)
	s.records = 0
	s.mu.Unlock()
}
