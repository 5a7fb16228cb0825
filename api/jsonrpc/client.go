// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"strings"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/api"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/ledger"
	"github.com/ava-labs/computeledger/requester"
	"github.com/ava-labs/computeledger/service"
	"github.com/ava-labs/computeledger/settlement"
)

type JSONRPCClient struct {
	requester *requester.EndpointRequester
}

// NewJSONRPCClient returns a client of the API served under [uri].
func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += Endpoint
	req := requester.New(uri, api.Name)
	return &JSONRPCClient{requester: req}
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.requester.SendRequest(ctx,
		"ping",
		nil,
		resp,
	)
	return resp.Success, err
}

func (cli *JSONRPCClient) Services(ctx context.Context) ([]string, error) {
	resp := new(ServicesReply)
	err := cli.requester.SendRequest(ctx, "services", nil, resp)
	return resp.Names, err
}

func (cli *JSONRPCClient) Entry(ctx context.Context, owner codec.Address) (ledger.Entry, error) {
	resp := new(EntryReply)
	err := cli.requester.SendRequest(
		ctx,
		"entry",
		&EntryArgs{Owner: owner},
		resp,
	)
	return resp.Entry, err
}

func (cli *JSONRPCClient) Entries(ctx context.Context, offset, limit int) ([]ledger.Entry, int, error) {
	resp := new(EntriesReply)
	err := cli.requester.SendRequest(
		ctx,
		"entries",
		&PageArgs{Offset: offset, Limit: limit},
		resp,
	)
	return resp.Entries, resp.Total, err
}

func (cli *JSONRPCClient) Deposit(ctx context.Context, caller codec.Address, amount uint64, metadata string) (ledger.Entry, error) {
	resp := new(EntryReply)
	err := cli.requester.SendRequest(
		ctx,
		"deposit",
		&DepositArgs{Caller: caller, Amount: amount, Metadata: metadata},
		resp,
	)
	return resp.Entry, err
}

func (cli *JSONRPCClient) DepositFor(ctx context.Context, sender, consumer codec.Address, amount uint64) (ledger.Entry, error) {
	resp := new(EntryReply)
	err := cli.requester.SendRequest(
		ctx,
		"depositFor",
		&DepositForArgs{Sender: sender, Consumer: consumer, Amount: amount},
		resp,
	)
	return resp.Entry, err
}

func (cli *JSONRPCClient) Transfer(
	ctx context.Context,
	caller codec.Address,
	provider codec.Address,
	serviceName string,
	amount uint64,
) (uint64, error) {
	resp := new(TransferReply)
	err := cli.requester.SendRequest(
		ctx,
		"transfer",
		&TransferArgs{
			Caller:   caller,
			Provider: provider,
			Service:  serviceName,
			Amount:   amount,
		},
		resp,
	)
	return resp.Cancelled, err
}

func (cli *JSONRPCClient) Recall(
	ctx context.Context,
	caller codec.Address,
	providers []codec.Address,
	serviceName string,
) (uint64, error) {
	resp := new(RecallReply)
	err := cli.requester.SendRequest(
		ctx,
		"recall",
		&RecallArgs{Caller: caller, Providers: providers, Service: serviceName},
		resp,
	)
	return resp.Released, err
}

func (cli *JSONRPCClient) Withdraw(ctx context.Context, caller codec.Address, amount uint64) error {
	return cli.requester.SendRequest(
		ctx,
		"withdraw",
		&WithdrawArgs{Caller: caller, Amount: amount},
		new(struct{}),
	)
}

func (cli *JSONRPCClient) RegisterProvider(ctx context.Context, serviceName string, d service.Descriptor, stake uint64) (bool, error) {
	resp := new(RegisterProviderReply)
	err := cli.requester.SendRequest(
		ctx,
		"registerProvider",
		&RegisterProviderArgs{Service: serviceName, Descriptor: d, Stake: stake},
		resp,
	)
	return resp.TrustRevoked, err
}

func (cli *JSONRPCClient) AcknowledgeAttestor(ctx context.Context, serviceName string, provider codec.Address, trusted bool) error {
	return cli.requester.SendRequest(
		ctx,
		"acknowledgeAttestor",
		&AcknowledgeAttestorArgs{Service: serviceName, Provider: provider, Trusted: trusted},
		new(struct{}),
	)
}

func (cli *JSONRPCClient) RemoveProvider(ctx context.Context, serviceName string, provider codec.Address) error {
	return cli.requester.SendRequest(
		ctx,
		"removeProvider",
		&ProviderArgs{Service: serviceName, Provider: provider},
		new(struct{}),
	)
}

func (cli *JSONRPCClient) Descriptor(ctx context.Context, serviceName string, provider codec.Address) (service.Descriptor, error) {
	resp := new(DescriptorReply)
	err := cli.requester.SendRequest(
		ctx,
		"descriptor",
		&ProviderArgs{Service: serviceName, Provider: provider},
		resp,
	)
	return resp.Descriptor, err
}

func (cli *JSONRPCClient) Descriptors(ctx context.Context, serviceName string, offset, limit int) ([]service.Descriptor, int, error) {
	resp := new(DescriptorsReply)
	err := cli.requester.SendRequest(
		ctx,
		"descriptors",
		&ServicePageArgs{Service: serviceName, Offset: offset, Limit: limit},
		resp,
	)
	return resp.Descriptors, resp.Total, err
}

func (cli *JSONRPCClient) AddDeliverable(
	ctx context.Context,
	serviceName string,
	provider codec.Address,
	consumer codec.Address,
	id string,
	contentHash ids.ID,
) (string, error) {
	resp := new(AddDeliverableReply)
	err := cli.requester.SendRequest(
		ctx,
		"addDeliverable",
		&AddDeliverableArgs{
			Service:     serviceName,
			Provider:    provider,
			Consumer:    consumer,
			ID:          id,
			ContentHash: contentHash,
		},
		resp,
	)
	return resp.Evicted, err
}

func (cli *JSONRPCClient) AcknowledgeProvider(ctx context.Context, serviceName string, consumer, provider codec.Address, ack bool) error {
	return cli.requester.SendRequest(
		ctx,
		"acknowledgeProvider",
		&AcknowledgeProviderArgs{
			Service:      serviceName,
			Consumer:     consumer,
			Provider:     provider,
			Acknowledged: ack,
		},
		new(struct{}),
	)
}

func (cli *JSONRPCClient) AcknowledgeDeliverable(ctx context.Context, serviceName string, consumer, provider codec.Address, id string) error {
	return cli.requester.SendRequest(
		ctx,
		"acknowledgeDeliverable",
		&DeliverableArgs{Service: serviceName, Consumer: consumer, Provider: provider, ID: id},
		new(struct{}),
	)
}

func (cli *JSONRPCClient) RequestRefund(ctx context.Context, serviceName string, consumer, provider codec.Address, amount uint64) (uint64, error) {
	resp := new(RequestRefundReply)
	err := cli.requester.SendRequest(
		ctx,
		"requestRefund",
		&RequestRefundArgs{Service: serviceName, Consumer: consumer, Provider: provider, Amount: amount},
		resp,
	)
	return resp.Index, err
}

func (cli *JSONRPCClient) Account(ctx context.Context, serviceName string, consumer, provider codec.Address) (account.View, error) {
	resp := new(AccountReply)
	err := cli.requester.SendRequest(
		ctx,
		"account",
		&AccountArgs{Service: serviceName, Consumer: consumer, Provider: provider},
		resp,
	)
	return resp.Account, err
}

// AccountsOfProvider pages through the sub-accounts held with [provider].
func (cli *JSONRPCClient) AccountsOfProvider(ctx context.Context, serviceName string, provider codec.Address, offset, limit int) ([]account.View, int, error) {
	resp := new(AccountsReply)
	err := cli.requester.SendRequest(
		ctx,
		"accounts",
		&AccountsArgs{Service: serviceName, Provider: &provider, Offset: offset, Limit: limit},
		resp,
	)
	return resp.Accounts, resp.Total, err
}

func (cli *JSONRPCClient) Settle(ctx context.Context, serviceName string, req *settlement.Request) (*settlement.Receipt, error) {
	resp := new(SettleReply)
	err := cli.requester.SendRequest(
		ctx,
		"settle",
		&SettleArgs{Service: serviceName, Request: req},
		resp,
	)
	return resp.Receipt, err
}

func (cli *JSONRPCClient) SettleBatch(
	ctx context.Context,
	serviceName string,
	provider codec.Address,
	reqs []*settlement.BatchRequest,
) ([]settlement.Result, error) {
	resp := new(SettleBatchReply)
	err := cli.requester.SendRequest(
		ctx,
		"settleBatch",
		&SettleBatchArgs{Service: serviceName, Provider: provider, Requests: reqs},
		resp,
	)
	return resp.Results, err
}

// Receipt returns the receipt of the settlement with [nonce], or the
// latest one when [nonce] is zero.
func (cli *JSONRPCClient) Receipt(ctx context.Context, provider, consumer codec.Address, nonce uint64) (*settlement.Receipt, error) {
	resp := new(SettleReply)
	err := cli.requester.SendRequest(
		ctx,
		"receipt",
		&ReceiptArgs{Provider: provider, Consumer: consumer, Nonce: nonce},
		resp,
	)
	return resp.Receipt, err
}

func (cli *JSONRPCClient) VerifyToken(ctx context.Context, serviceName string, token []byte) (*VerifyTokenReply, error) {
	resp := new(VerifyTokenReply)
	err := cli.requester.SendRequest(
		ctx,
		"verifyToken",
		&VerifyTokenArgs{Service: serviceName, Token: token},
		resp,
	)
	return resp, err
}

func (cli *JSONRPCClient) RevokeToken(ctx context.Context, serviceName string, consumer, provider codec.Address, tokenID uint8, all bool) error {
	return cli.requester.SendRequest(
		ctx,
		"revokeToken",
		&RevokeTokenArgs{
			Service:  serviceName,
			Consumer: consumer,
			Provider: provider,
			TokenID:  tokenID,
			All:      all,
		},
		new(struct{}),
	)
}
