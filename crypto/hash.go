// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"github.com/ava-labs/avalanchego/ids"
	"golang.org/x/crypto/sha3"
)

const DigestLen = 32

// Keccak256 hashes the concatenation of [chunks] with legacy Keccak-256,
// the digest attestors sign over.
func Keccak256(chunks ...[]byte) ids.ID {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		_, _ = h.Write(c)
	}
	var out ids.ID
	h.Sum(out[:0])
	return out
}
