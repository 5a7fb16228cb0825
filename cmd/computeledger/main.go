// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultEndpoint = "http://127.0.0.1:9650/ext/computeledger"

var rootCmd = &cobra.Command{
	Use:   "computeledger",
	Short: "Prepaid ledger and settlement engine for compute marketplaces",
	Long:  `Runs the ledger daemon and talks to a running one over JSON-RPC.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().String("endpoint", defaultEndpoint, "API endpoint of a running daemon")
	rootCmd.AddCommand(
		serveCmd,
		keyCmd,
		pingCmd,
		entryCmd,
		depositCmd,
		receiptCmd,
	)
}

func main() {
	Execute()
}
