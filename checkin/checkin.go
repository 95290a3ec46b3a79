/*
Package checkin implements ticket check-in at the door without a transaction.

The holder signs an EIP-712 TicketCheckIn pass for one ticket with a short
deadline. Door staff verify that the signature comes from the holder, whether
an EOA, a deployed smart account (EIP-1271) or, if allowed, a counterfactual
one (ERC-6492), and that the holder owns the ticket on chain. A pass is
accepted once per Verifier.
*/
package checkin

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts"
	"github.com/sellout-xyz/sellout/go/contracts/unwrap"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	"github.com/sellout-xyz/sellout/go/validation"
)

// EIP-712 domain and type of a pass
const (
	DomainName    = "Sellout Ticket"
	DomainVersion = "1"
	PrimaryType   = "TicketCheckIn"
)

// Types is the EIP-712 type set of a pass
var Types = map[string][]evm.TypedDataField{
	PrimaryType: {
		{Name: "showId", Type: "bytes32"},
		{Name: "ticketId", Type: "uint256"},
		{Name: "holder", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// Rejection reasons reported in Result
const (
	ReasonExpired          = "pass expired"
	ReasonInvalidSignature = "invalid signature"
	ReasonNotOwner         = "holder does not own the ticket"
	ReasonReplayed         = "pass already used"
)

// Domain returns the signing domain of passes for the ticket proxy on chain
func Domain(chain *evm.ChainContext, ticketProxy common.Address) evm.TypedDataDomain {
	return evm.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           chain.BigChainID(),
		VerifyingContract: ticketProxy.Hex(),
	}
}

// Pass is a holder's claim to one ticket, valid until Deadline (unix seconds)
type Pass struct {
	ShowID   [32]byte
	TicketID *big.Int
	Holder   common.Address
	Nonce    *big.Int
	Deadline *big.Int
}

// NewPass creates a pass for holder valid for ttl, with a random nonce
func NewPass(showID [32]byte, ticketID *big.Int, holder common.Address, ttl time.Duration) (*Pass, error) {
	nonce, err := evm.CreateNonce()
	if err != nil {
		return nil, err
	}
	return &Pass{
		ShowID:   showID,
		TicketID: ticketID,
		Holder:   holder,
		Nonce:    nonce,
		Deadline: big.NewInt(time.Now().Add(ttl).Unix()),
	}, nil
}

// Message returns the pass in EIP-712 message form
func (p *Pass) Message() map[string]interface{} {
	return map[string]interface{}{
		"showId":   hexutil.Encode(p.ShowID[:]),
		"ticketId": p.TicketID,
		"holder":   p.Holder.Hex(),
		"nonce":    p.Nonce,
		"deadline": p.Deadline,
	}
}

// Hash returns the EIP-712 digest of the pass under domain
func (p *Pass) Hash(domain evm.TypedDataDomain) ([32]byte, error) {
	digest, err := evm.HashTypedData(domain, Types, PrimaryType, p.Message())
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], digest)
	return out, nil
}

// Input returns the pass with its signature in the form Verify accepts
func (p *Pass) Input(signature []byte) Input {
	return Input{
		ShowID:    hexutil.Encode(p.ShowID[:]),
		TicketID:  p.TicketID.String(),
		Holder:    p.Holder.Hex(),
		Nonce:     p.Nonce.String(),
		Deadline:  p.Deadline.String(),
		Signature: hexutil.Encode(signature),
	}
}

// Sign signs pass as its holder
func Sign(ctx context.Context, signer evm.TypedDataSigner, domain evm.TypedDataDomain, pass *Pass) ([]byte, error) {
	if signer.Address() != pass.Holder {
		return nil, fmt.Errorf("signer %s is not the pass holder %s", signer.Address().Hex(), pass.Holder.Hex())
	}
	return signer.SignTypedData(ctx, domain, Types, PrimaryType, pass.Message())
}

// Input is a signed pass as presented at the door
type Input struct {
	ShowID    string `json:"showId,omitempty"`
	TicketID  string `json:"ticketId,omitempty"`
	Holder    string `json:"holder,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
	Deadline  string `json:"deadline,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Result is the outcome of a check-in. Reason is set when Valid is false.
type Result struct {
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
	Holder   string `json:"holder"`
	ShowID   string `json:"showId"`
	TicketID string `json:"ticketId"`
}

// Option configures a Verifier
type Option func(*Verifier)

// WithLogger sets the verifier's logger
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClock replaces time.Now for deadline checks
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithUndeployedAccounts accepts ERC-6492 signatures of smart accounts that
// are not deployed yet. Their inner signature cannot be checked on chain.
func WithUndeployedAccounts(allow bool) Option {
	return func(v *Verifier) {
		v.allowUndeployed = allow
	}
}

// Verifier checks passes for one ticket proxy
type Verifier struct {
	ticket          contracts.Binding
	domain          evm.TypedDataDomain
	invoker         contracts.Invoker
	backend         evm.SignatureBackend
	now             func() time.Time
	allowUndeployed bool
	logger          *zap.Logger

	mu   sync.Mutex
	used map[string]int64
}

// NewVerifier creates a Verifier for the ticket proxy at proxy. Reads go
// through invoker, code lookups for smart account detection through code.
func NewVerifier(invoker contracts.Invoker, code evm.CodeReader, chain *evm.ChainContext, proxy string, opts ...Option) (*Verifier, error) {
	ticket, err := contracts.BindProxy(proxy, abis.Ticket())
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		ticket:  ticket,
		domain:  Domain(chain, ticket.Address),
		invoker: invoker,
		backend: signatureBackend{Invoker: invoker, code: code},
		now:     time.Now,
		logger:  zap.NewNop(),
		used:    make(map[string]int64),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("checkin")
	return v, nil
}

// Domain returns the signing domain holders must use
func (v *Verifier) Domain() evm.TypedDataDomain {
	return v.domain
}

// Verify checks a signed pass. A pass that fails a check yields a Result
// with Valid unset; errors are reserved for invalid input and chain access
// failures.
func (v *Verifier) Verify(ctx context.Context, in Input) (*Result, error) {
	var (
		pass      Pass
		signature []byte
	)
	err := contracts.Prepare("checkin.verify", in, func(co *validation.Coercer) {
		pass = Pass{
			ShowID:   co.Bytes32("showId", in.ShowID),
			TicketID: co.BigInt("ticketId", in.TicketID),
			Holder:   co.Address("holder", in.Holder),
			Nonce:    co.BigInt("nonce", in.Nonce),
			Deadline: co.BigInt("deadline", in.Deadline),
		}
		signature = co.Bytes("signature", in.Signature)
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Holder:   pass.Holder.Hex(),
		ShowID:   hexutil.Encode(pass.ShowID[:]),
		TicketID: pass.TicketID.String(),
	}
	reject := func(reason string) (*Result, error) {
		v.logger.Info("check-in rejected",
			zap.String("holder", res.Holder),
			zap.String("ticketId", res.TicketID),
			zap.String("reason", reason))
		res.Reason = reason
		return res, nil
	}

	now := v.now().Unix()
	if !pass.Deadline.IsInt64() || pass.Deadline.Int64() < now {
		return reject(ReasonExpired)
	}

	hash, err := pass.Hash(v.domain)
	if err != nil {
		return nil, sellout.NewValidationError("checkin.verify", "", err.Error())
	}

	valid, _, err := evm.VerifyUniversalSignature(ctx, v.backend, pass.Holder, hash, signature, v.allowUndeployed)
	if err != nil {
		if errors.Is(err, sellout.ErrRead) || ctx.Err() != nil {
			return nil, err
		}
		if strings.HasPrefix(err.Error(), evm.ErrUndeployedSmartWallet) {
			return reject(evm.ErrUndeployedSmartWallet)
		}
		return reject(ReasonInvalidSignature + ": " + err.Error())
	}
	if !valid {
		return reject(ReasonInvalidSignature)
	}

	owns, err := unwrap.Bool(v.invoker.Read(ctx, v.ticket.Request("isTicketOwner", pass.Holder, pass.ShowID, pass.TicketID)))
	if err != nil {
		return nil, err
	}
	if !owns {
		return reject(ReasonNotOwner)
	}

	if !v.markUsed(pass, now) {
		return reject(ReasonReplayed)
	}

	res.Valid = true
	v.logger.Info("check-in accepted",
		zap.String("holder", res.Holder),
		zap.String("showId", res.ShowID),
		zap.String("ticketId", res.TicketID))
	return res, nil
}

// markUsed records the pass nonce and reports whether it was fresh. Entries
// past their deadline are dropped, an expired pass cannot be replayed anyway.
func (v *Verifier) markUsed(pass Pass, now int64) bool {
	key := pass.Holder.Hex() + ":" + pass.Nonce.String()

	v.mu.Lock()
	defer v.mu.Unlock()

	for k, deadline := range v.used {
		if deadline < now {
			delete(v.used, k)
		}
	}
	if _, ok := v.used[key]; ok {
		return false
	}
	v.used[key] = pass.Deadline.Int64()
	return true
}

// signatureBackend serves universal signature verification: EIP-1271 reads
// through the invoker, code lookups through the chain
type signatureBackend struct {
	contracts.Invoker
	code evm.CodeReader
}

func (b signatureBackend) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	code, err := b.code.CodeAt(ctx, account)
	if err != nil {
		return nil, sellout.NewReadError(account.Hex(), "eth_getCode", err)
	}
	return code, nil
}
