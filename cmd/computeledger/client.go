// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ava-labs/computeledger/api/jsonrpc"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/utils"
)

func client(cmd *cobra.Command) (*jsonrpc.JSONRPCClient, error) {
	endpoint, err := cmd.Flags().GetString("endpoint")
	if err != nil {
		return nil, err
	}
	return jsonrpc.NewJSONRPCClient(endpoint), nil
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli, err := client(cmd)
		if err != nil {
			return err
		}
		ok, err := cli.Ping(cmd.Context())
		if err != nil {
			return err
		}
		names, err := cli.Services(cmd.Context())
		if err != nil {
			return err
		}
		utils.Outf("{{green}}ping:{{/}} %t {{green}}services:{{/}} %v\n", ok, names)
		return nil
	},
}

var entryCmd = &cobra.Command{
	Use:   "entry [owner]",
	Short: "Show the master ledger entry of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := codec.ParseAddress(args[0])
		if err != nil {
			return err
		}
		cli, err := client(cmd)
		if err != nil {
			return err
		}
		e, err := cli.Entry(cmd.Context(), owner)
		if err != nil {
			return err
		}
		utils.Outf(
			"{{yellow}}owner:{{/}} %s {{yellow}}available:{{/}} %d {{yellow}}total:{{/}} %d {{yellow}}metadata:{{/}} %q\n",
			e.Owner,
			e.Available,
			e.Total,
			e.Metadata,
		)
		return nil
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit [owner] [amount]",
	Short: "Credit a master ledger entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := codec.ParseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		metadata, err := cmd.Flags().GetString("metadata")
		if err != nil {
			return err
		}
		cli, err := client(cmd)
		if err != nil {
			return err
		}
		e, err := cli.Deposit(cmd.Context(), owner, amount, metadata)
		if err != nil {
			return err
		}
		utils.Outf("{{green}}deposited{{/}} %d {{green}}available:{{/}} %d {{green}}total:{{/}} %d\n", amount, e.Available, e.Total)
		return nil
	},
}

var receiptCmd = &cobra.Command{
	Use:   "receipt [provider] [consumer] [nonce]",
	Short: "Show a settlement receipt; without a nonce, the latest one",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := codec.ParseAddress(args[0])
		if err != nil {
			return err
		}
		consumer, err := codec.ParseAddress(args[1])
		if err != nil {
			return err
		}
		var nonce uint64
		if len(args) == 3 {
			nonce, err = strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return err
			}
		}
		cli, err := client(cmd)
		if err != nil {
			return err
		}
		r, err := cli.Receipt(cmd.Context(), provider, consumer, nonce)
		if err != nil {
			return err
		}
		utils.Outf(
			"{{cyan}}nonce:{{/}} %d {{cyan}}status:{{/}} %s {{cyan}}fee:{{/}} %d {{cyan}}charged:{{/}} %d {{cyan}}unsettled:{{/}} %d\n",
			r.Nonce,
			r.Status,
			r.Fee,
			r.Charged,
			r.Unsettled,
		)
		return nil
	},
}

func init() {
	depositCmd.Flags().String("metadata", "", "replace the entry metadata")
}
