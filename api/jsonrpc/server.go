// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"net/http"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/api"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/ledger"
	"github.com/ava-labs/computeledger/service"
	"github.com/ava-labs/computeledger/session"
	"github.com/ava-labs/computeledger/settlement"
)

const Endpoint = "/ledgerapi"

var _ api.HandlerFactory[api.Node] = (*JSONRPCServerFactory)(nil)

type JSONRPCServerFactory struct{}

func (JSONRPCServerFactory) New(n api.Node) (api.Handler, error) {
	handler, err := api.NewJSONRPCHandler(api.Name, NewJSONRPCServer(n))
	if err != nil {
		return api.Handler{}, err
	}
	return api.Handler{
		Path:    Endpoint,
		Handler: handler,
	}, nil
}

// JSONRPCServer exposes a node over JSON-RPC. Callers identify themselves
// in the arguments. Every call holds one lock, so the node sees the
// sequential calls it expects.
type JSONRPCServer struct {
	lock sync.Mutex
	node api.Node
}

func NewJSONRPCServer(n api.Node) *JSONRPCServer {
	return &JSONRPCServer{node: n}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) error {
	j.node.Logger().Info("ping")
	reply.Success = true
	return nil
}

type ServicesReply struct {
	Names []string `json:"names"`
}

func (j *JSONRPCServer) Services(_ *http.Request, _ *struct{}, reply *ServicesReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	reply.Names = j.node.Services()
	return nil
}

// Ledger

type EntryArgs struct {
	Owner codec.Address `json:"owner"`
}

type EntryReply struct {
	Entry ledger.Entry `json:"entry"`
}

func (j *JSONRPCServer) Entry(_ *http.Request, args *EntryArgs, reply *EntryReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	e, err := j.node.Ledger().Get(args.Owner)
	if err != nil {
		return err
	}
	reply.Entry = e
	return nil
}

type PageArgs struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type EntriesReply struct {
	Entries []ledger.Entry `json:"entries"`
	Total   int            `json:"total"`
}

func (j *JSONRPCServer) Entries(_ *http.Request, args *PageArgs, reply *EntriesReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	entries, total, err := j.node.Ledger().List(args.Offset, args.Limit)
	if err != nil {
		return err
	}
	reply.Entries = entries
	reply.Total = total
	return nil
}

type DepositArgs struct {
	Caller   codec.Address `json:"caller"`
	Amount   uint64        `json:"amount"`
	Metadata string        `json:"metadata"`
}

func (j *JSONRPCServer) Deposit(req *http.Request, args *DepositArgs, reply *EntryReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Deposit")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	e, err := j.node.Ledger().Deposit(ctx, args.Caller, args.Amount, args.Metadata)
	if err != nil {
		return err
	}
	reply.Entry = e
	return nil
}

type DepositForArgs struct {
	Sender   codec.Address `json:"sender"`
	Consumer codec.Address `json:"consumer"`
	Amount   uint64        `json:"amount"`
}

func (j *JSONRPCServer) DepositFor(req *http.Request, args *DepositForArgs, reply *EntryReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.DepositFor")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	e, err := j.node.Ledger().DepositFor(ctx, args.Sender, args.Consumer, args.Amount)
	if err != nil {
		return err
	}
	reply.Entry = e
	return nil
}

type TransferArgs struct {
	Caller   codec.Address `json:"caller"`
	Provider codec.Address `json:"provider"`
	Service  string        `json:"service"`
	Amount   uint64        `json:"amount"`
}

type TransferReply struct {
	Cancelled uint64 `json:"cancelled"`
}

func (j *JSONRPCServer) Transfer(req *http.Request, args *TransferArgs, reply *TransferReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Transfer")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	cancelled, err := j.node.Ledger().TransferToProvider(ctx, args.Caller, args.Provider, args.Service, args.Amount)
	if err != nil {
		return err
	}
	reply.Cancelled = cancelled
	return nil
}

type RecallArgs struct {
	Caller    codec.Address   `json:"caller"`
	Providers []codec.Address `json:"providers"`
	Service   string          `json:"service"`
}

type RecallReply struct {
	Released uint64 `json:"released"`
}

func (j *JSONRPCServer) Recall(req *http.Request, args *RecallArgs, reply *RecallReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Recall")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	released, err := j.node.Ledger().RecallFunds(ctx, args.Caller, args.Providers, args.Service)
	if err != nil {
		return err
	}
	reply.Released = released
	return nil
}

type WithdrawArgs struct {
	Caller codec.Address `json:"caller"`
	Amount uint64        `json:"amount"`
}

func (j *JSONRPCServer) Withdraw(req *http.Request, args *WithdrawArgs, _ *struct{}) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Withdraw")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	return j.node.Ledger().Withdraw(ctx, args.Caller, args.Amount)
}

// Providers

type RegisterProviderArgs struct {
	Service    string             `json:"service"`
	Descriptor service.Descriptor `json:"descriptor"`
	Stake      uint64             `json:"stake"`
}

type RegisterProviderReply struct {
	TrustRevoked bool `json:"trustRevoked"`
}

func (j *JSONRPCServer) RegisterProvider(_ *http.Request, args *RegisterProviderArgs, reply *RegisterProviderReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	revoked, err := s.RegisterProvider(args.Descriptor, args.Stake)
	if err != nil {
		return err
	}
	reply.TrustRevoked = revoked
	return nil
}

type AcknowledgeAttestorArgs struct {
	Service  string        `json:"service"`
	Provider codec.Address `json:"provider"`
	Trusted  bool          `json:"trusted"`
}

func (j *JSONRPCServer) AcknowledgeAttestor(_ *http.Request, args *AcknowledgeAttestorArgs, _ *struct{}) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	return s.AcknowledgeAttestor(args.Provider, args.Trusted)
}

type ProviderArgs struct {
	Service  string        `json:"service"`
	Provider codec.Address `json:"provider"`
}

func (j *JSONRPCServer) RemoveProvider(req *http.Request, args *ProviderArgs, _ *struct{}) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.RemoveProvider")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	return s.RemoveProvider(ctx, args.Provider)
}

type DescriptorReply struct {
	Descriptor service.Descriptor `json:"descriptor"`
}

func (j *JSONRPCServer) Descriptor(_ *http.Request, args *ProviderArgs, reply *DescriptorReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	d, err := s.Descriptor(args.Provider)
	if err != nil {
		return err
	}
	reply.Descriptor = d
	return nil
}

type ServicePageArgs struct {
	Service string `json:"service"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
}

type DescriptorsReply struct {
	Descriptors []service.Descriptor `json:"descriptors"`
	Total       int                  `json:"total"`
}

func (j *JSONRPCServer) Descriptors(_ *http.Request, args *ServicePageArgs, reply *DescriptorsReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	descs, total, err := s.Descriptors(args.Offset, args.Limit)
	if err != nil {
		return err
	}
	reply.Descriptors = descs
	reply.Total = total
	return nil
}

type AddDeliverableArgs struct {
	Service     string        `json:"service"`
	Provider    codec.Address `json:"provider"`
	Consumer    codec.Address `json:"consumer"`
	ID          string        `json:"id"`
	ContentHash ids.ID        `json:"contentHash"`
}

type AddDeliverableReply struct {
	Evicted string `json:"evicted"`
}

func (j *JSONRPCServer) AddDeliverable(_ *http.Request, args *AddDeliverableArgs, reply *AddDeliverableReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	evicted, err := s.AddDeliverable(args.Provider, args.Consumer, args.ID, args.ContentHash)
	if err != nil {
		return err
	}
	reply.Evicted = evicted
	return nil
}

// Consumers

type AcknowledgeProviderArgs struct {
	Service      string        `json:"service"`
	Consumer     codec.Address `json:"consumer"`
	Provider     codec.Address `json:"provider"`
	Acknowledged bool          `json:"acknowledged"`
}

func (j *JSONRPCServer) AcknowledgeProvider(_ *http.Request, args *AcknowledgeProviderArgs, _ *struct{}) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	return s.AcknowledgeProvider(args.Consumer, args.Provider, args.Acknowledged)
}

type DeliverableArgs struct {
	Service  string        `json:"service"`
	Consumer codec.Address `json:"consumer"`
	Provider codec.Address `json:"provider"`
	ID       string        `json:"id"`
}

func (j *JSONRPCServer) AcknowledgeDeliverable(_ *http.Request, args *DeliverableArgs, _ *struct{}) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	return s.AcknowledgeDeliverable(args.Consumer, args.Provider, args.ID)
}

type RequestRefundArgs struct {
	Service  string        `json:"service"`
	Consumer codec.Address `json:"consumer"`
	Provider codec.Address `json:"provider"`
	Amount   uint64        `json:"amount"`
}

type RequestRefundReply struct {
	Index uint64 `json:"index"`
}

func (j *JSONRPCServer) RequestRefund(_ *http.Request, args *RequestRefundArgs, reply *RequestRefundReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	index, err := s.RequestRefund(args.Consumer, args.Provider, args.Amount)
	if err != nil {
		return err
	}
	reply.Index = index
	return nil
}

type AccountArgs struct {
	Service  string        `json:"service"`
	Consumer codec.Address `json:"consumer"`
	Provider codec.Address `json:"provider"`
}

type AccountReply struct {
	Account account.View `json:"account"`
}

func (j *JSONRPCServer) Account(_ *http.Request, args *AccountArgs, reply *AccountReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	v, err := s.Account(args.Consumer, args.Provider)
	if err != nil {
		return err
	}
	reply.Account = v
	return nil
}

type AccountsArgs struct {
	Service  string         `json:"service"`
	Provider *codec.Address `json:"provider,omitempty"`
	Consumer *codec.Address `json:"consumer,omitempty"`
	Offset   int            `json:"offset"`
	Limit    int            `json:"limit"`
}

type AccountsReply struct {
	Accounts []account.View `json:"accounts"`
	Total    int            `json:"total"`
}

// Accounts pages through the sub-accounts of a service, optionally only
// those of one provider or one consumer.
func (j *JSONRPCServer) Accounts(_ *http.Request, args *AccountsArgs, reply *AccountsReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	var (
		views []account.View
		total int
	)
	switch {
	case args.Provider != nil:
		views, total, err = s.AccountsByProvider(*args.Provider, args.Offset, args.Limit)
	case args.Consumer != nil:
		views, total, err = s.AccountsByConsumer(*args.Consumer, args.Offset, args.Limit)
	default:
		views, total, err = s.Accounts(args.Offset, args.Limit)
	}
	if err != nil {
		return err
	}
	reply.Accounts = views
	reply.Total = total
	return nil
}

// Settlement

type SettleArgs struct {
	Service string              `json:"service"`
	Request *settlement.Request `json:"request"`
}

type SettleReply struct {
	Receipt *settlement.Receipt `json:"receipt"`
}

// Settle applies one settlement. A failed payout is reported as an
// error even though the settlement was applied.
func (j *JSONRPCServer) Settle(req *http.Request, args *SettleArgs, reply *SettleReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.Settle")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	if args.Request == nil {
		return ErrMissingRequest
	}
	receipt, err := s.Settle(ctx, args.Request)
	reply.Receipt = receipt
	if err != nil {
		j.node.Logger().Debug("settlement failed",
			zap.String("service", args.Service),
			zap.Error(err),
		)
	}
	return err
}

type SettleBatchArgs struct {
	Service  string                     `json:"service"`
	Provider codec.Address              `json:"provider"`
	Requests []*settlement.BatchRequest `json:"requests"`
}

type SettleBatchReply struct {
	Results []settlement.Result `json:"results"`
}

func (j *JSONRPCServer) SettleBatch(req *http.Request, args *SettleBatchArgs, reply *SettleBatchReply) error {
	ctx, span := j.node.Tracer().Start(req.Context(), "JSONRPCServer.SettleBatch")
	defer span.End()

	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	results, err := s.SettleMany(ctx, args.Provider, args.Requests)
	reply.Results = results
	return err
}

type ReceiptArgs struct {
	Provider codec.Address `json:"provider"`
	Consumer codec.Address `json:"consumer"`
	// Nonce selects a settlement. Zero selects the latest one.
	Nonce uint64 `json:"nonce"`
}

func (j *JSONRPCServer) Receipt(_ *http.Request, args *ReceiptArgs, reply *SettleReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	var (
		r   *settlement.Receipt
		err error
	)
	if args.Nonce == 0 {
		r, err = j.node.Journal().Latest(args.Provider, args.Consumer)
	} else {
		r, err = j.node.Journal().Get(args.Provider, args.Consumer, args.Nonce)
	}
	if err != nil {
		return err
	}
	reply.Receipt = r
	return nil
}

// Sessions

type VerifyTokenArgs struct {
	Service string `json:"service"`
	Token   []byte `json:"token"`
}

type VerifyTokenReply struct {
	Consumer codec.Address `json:"consumer"`
	Provider codec.Address `json:"provider"`
	Expiry   int64         `json:"expiry"`
}

func (j *JSONRPCServer) VerifyToken(_ *http.Request, args *VerifyTokenArgs, reply *VerifyTokenReply) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	t, err := session.Unmarshal(args.Token)
	if err != nil {
		return err
	}
	v, err := j.node.Verifier(args.Service)
	if err != nil {
		return err
	}
	if err := v.Verify(t); err != nil {
		return err
	}
	reply.Consumer = t.Consumer
	reply.Provider = t.Provider
	reply.Expiry = t.Expiry
	return nil
}

type RevokeTokenArgs struct {
	Service  string        `json:"service"`
	Consumer codec.Address `json:"consumer"`
	Provider codec.Address `json:"provider"`
	TokenID  uint8         `json:"tokenId"`
	// All revokes every token issued so far.
	All bool `json:"all"`
}

func (j *JSONRPCServer) RevokeToken(_ *http.Request, args *RevokeTokenArgs, _ *struct{}) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	s, err := j.node.Service(args.Service)
	if err != nil {
		return err
	}
	if args.All {
		return s.RevokeAllTokens(args.Consumer, args.Provider)
	}
	return s.RevokeToken(args.Consumer, args.Provider, args.TokenID)
}
