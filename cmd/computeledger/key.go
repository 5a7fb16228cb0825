// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-labs/computeledger/crypto/ed25519"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
	"github.com/ava-labs/computeledger/utils"
)

const (
	ed25519Key   = "ed25519"
	secp256k1Key = "secp256k1"
)

var errUnknownKeyType = errors.New("unknown key type")

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage consumer and attestor keys",
}

var generateKeyCmd = &cobra.Command{
	Use:   "generate [ed25519|secp256k1] [file]",
	Short: "Generate a key and save it to a file",
	Long: `ed25519 keys sign consumer session tokens and their public key
derives the consumer address. secp256k1 keys are provider attestor keys.`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		switch args[0] {
		case ed25519Key:
			priv, err := ed25519.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := utils.SaveBytes(args[1], priv[:]); err != nil {
				return err
			}
			utils.Outf("{{green}}created consumer key{{/}} address: %s\n", priv.PublicKey().Address())
			return nil
		case secp256k1Key:
			priv, err := secp256k1.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := utils.SaveBytes(args[1], priv[:]); err != nil {
				return err
			}
			utils.Outf("{{green}}created attestor key{{/}} public key: %s\n", priv.PublicKey())
			return nil
		default:
			return fmt.Errorf("%w: %s", errUnknownKeyType, args[0])
		}
	},
}

var showKeyCmd = &cobra.Command{
	Use:   "show [ed25519|secp256k1] [file]",
	Short: "Print the public identity of a saved key",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		switch args[0] {
		case ed25519Key:
			b, err := utils.LoadBytes(args[1], ed25519.PrivateKeyLen)
			if err != nil {
				return err
			}
			priv := ed25519.PrivateKey(b)
			utils.Outf("{{yellow}}address:{{/}} %s\n", priv.PublicKey().Address())
			return nil
		case secp256k1Key:
			b, err := utils.LoadBytes(args[1], secp256k1.PrivateKeyLen)
			if err != nil {
				return err
			}
			priv := secp256k1.PrivateKey(b)
			utils.Outf("{{yellow}}public key:{{/}} %s\n", priv.PublicKey())
			return nil
		default:
			return fmt.Errorf("%w: %s", errUnknownKeyType, args[0])
		}
	},
}

func init() {
	keyCmd.AddCommand(generateKeyCmd, showKeyCmd)
}
