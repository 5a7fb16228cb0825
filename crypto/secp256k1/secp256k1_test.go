// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package secp256k1

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/computeledger/crypto"
)

func TestSignRecover(t *testing.T) {
	require := require.New(t)

	priv, err := GeneratePrivateKey()
	require.NoError(err)
	pub := priv.PublicKey()
	require.False(pub.Empty())

	digest := crypto.Keccak256([]byte("deliverable"))
	sig, err := Sign(digest[:], priv)
	require.NoError(err)

	signer, err := Recover(digest[:], sig)
	require.NoError(err)
	require.Equal(pub, signer)
	require.True(Verify(digest[:], pub, sig))
}

func TestVerifyWrongDigest(t *testing.T) {
	require := require.New(t)

	priv, err := GeneratePrivateKey()
	require.NoError(err)
	digest := crypto.Keccak256([]byte("a"))
	sig, err := Sign(digest[:], priv)
	require.NoError(err)

	other := crypto.Keccak256([]byte("b"))
	require.False(Verify(other[:], priv.PublicKey(), sig))
}

func TestVerifyWrongKey(t *testing.T) {
	require := require.New(t)

	priv, err := GeneratePrivateKey()
	require.NoError(err)
	other, err := GeneratePrivateKey()
	require.NoError(err)

	digest := crypto.Keccak256([]byte("a"))
	sig, err := Sign(digest[:], priv)
	require.NoError(err)
	require.False(Verify(digest[:], other.PublicKey(), sig))
	require.False(Verify(digest[:], EmptyPublicKey, sig))
}

func TestSignInvalidDigest(t *testing.T) {
	require := require.New(t)

	priv, err := GeneratePrivateKey()
	require.NoError(err)
	_, err = Sign([]byte{1, 2, 3}, priv)
	require.ErrorIs(err, crypto.ErrInvalidDigest)

	_, err = Recover([]byte{1}, EmptySignature)
	require.ErrorIs(err, crypto.ErrInvalidDigest)
}

func TestPublicKeyText(t *testing.T) {
	require := require.New(t)

	priv, err := GeneratePrivateKey()
	require.NoError(err)
	pub := priv.PublicKey()

	b, err := pub.MarshalText()
	require.NoError(err)
	var parsed PublicKey
	require.NoError(parsed.UnmarshalText(b))
	require.Equal(pub, parsed)

	require.ErrorIs(parsed.UnmarshalText([]byte("02ffff")), crypto.ErrInvalidPublicKey)

	b, err = PublicKey{}.MarshalText()
	require.NoError(err)
	require.NoError(parsed.UnmarshalText(b))
	require.True(parsed.Empty())
}
