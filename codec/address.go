// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const AddressLen = 33

// Address identifies a consumer, a provider or the ledger operator. The
// first byte is the key type the address was derived from, the remaining
// 32 bytes are the hash of that key.
type Address [AddressLen]byte

var EmptyAddress = Address{}

// CreateAddress returns [Address] made from concatenating
// [typeID] with [id].
func CreateAddress(typeID uint8, id ids.ID) Address {
	a := make([]byte, AddressLen)
	a[0] = typeID
	copy(a[1:], id[:])
	return Address(a)
}

// KeyAddress derives the address of a public key of type [typeID].
func KeyAddress(typeID uint8, key []byte) Address {
	return CreateAddress(typeID, hashing.ComputeHash256Array(key))
}

// ParseAddress parses the hex form produced by [Address.String], with or
// without a 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	if err := a.UnmarshalText([]byte(s)); err != nil {
		return EmptyAddress, err
	}
	return a, nil
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Empty() bool {
	return a == EmptyAddress
}

// MarshalText returns the hex representation of a.
func (a Address) MarshalText() ([]byte, error) {
	result := make([]byte, len(a)*2+2)
	copy(result, `0x`)
	hex.Encode(result[2:], a[:])
	return result, nil
}

// UnmarshalText parses a hex-encoded address.
func (a *Address) UnmarshalText(input []byte) error {
	if len(input) >= 2 && input[0] == '0' && input[1] == 'x' {
		input = input[2:]
	}
	decoded, err := hex.DecodeString(string(input))
	if err != nil {
		return err
	}
	if len(decoded) != AddressLen {
		return fmt.Errorf("%w: address has %d bytes", ErrInvalidSize, len(decoded))
	}
	copy(a[:], decoded)
	return nil
}
