/*
Package venue provides a wrapper for the Venue contract, where venues bid for
a show with a bribe and proposed dates and ticket holders vote on them.
*/
package venue

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts"
	"github.com/sellout-xyz/sellout/go/contracts/unwrap"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	"github.com/sellout-xyz/sellout/go/validation"
)

// Proposal is a venue's bid for a show
type Proposal struct {
	Venue         common.Address `json:"venue"`
	Proposer      common.Address `json:"proposer"`
	Bribe         *big.Int       `json:"bribe"`
	ProposedDates []*big.Int     `json:"proposedDates"`
	Votes         *big.Int       `json:"votes"`
	Refunded      bool           `json:"refunded"`
}

// Selection is the outcome of a finalized vote
type Selection struct {
	Venue common.Address `json:"venue"`
	Date  *big.Int       `json:"date"`
}

// ContractReader represents safe methods of Venue
type ContractReader struct {
	contracts.Binding

	invoker contracts.Invoker
}

// Contract provides the full Venue interface
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the Venue deployment on chain
func NewReader(invoker contracts.Invoker, chain *evm.ChainContext) (*ContractReader, error) {
	b, err := contracts.Bind(chain, evm.ContractVenue, abis.Venue())
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, invoker: invoker}, nil
}

// New creates a Contract for the Venue deployment on chain
func New(actor contracts.Actor, chain *evm.ChainContext) (*Contract, error) {
	r, err := NewReader(actor, chain)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// GetProposalCount returns the number of proposals for a show
func (c *ContractReader) GetProposalCount(ctx context.Context, showID string) (*big.Int, error) {
	id, err := contracts.PrepareShowID("venue.getProposalCount", showID)
	if err != nil {
		return nil, err
	}
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request("getProposalCount", id)))
}

// ProposalInput addresses one proposal of a show
type ProposalInput struct {
	ShowID        string `json:"showId,omitempty"`
	ProposalIndex string `json:"proposalIndex,omitempty"`
}

func (in ProposalInput) prepare(operation string) ([32]byte, *big.Int, error) {
	var (
		id    [32]byte
		index *big.Int
	)
	err := contracts.Prepare(operation, in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		index = co.BigInt("proposalIndex", in.ProposalIndex)
	})
	return id, index, err
}

// GetProposal returns one proposal
func (c *ContractReader) GetProposal(ctx context.Context, in ProposalInput) (*Proposal, error) {
	id, index, err := in.prepare("venue.getProposal")
	if err != nil {
		return nil, err
	}
	return unwrap.Tuple[Proposal](c.invoker.Read(ctx, c.Request("getProposal", id, index)))
}

// VoterInput is the input of HasVoted
type VoterInput struct {
	ShowID string `json:"showId,omitempty"`
	User   string `json:"user,omitempty"`
}

// HasVoted reports whether user already voted on the show
func (c *ContractReader) HasVoted(ctx context.Context, in VoterInput) (bool, error) {
	var (
		id   [32]byte
		user common.Address
	)
	err := contracts.Prepare("venue.hasVoted", in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		user = co.Address("user", in.User)
	})
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("hasVoted", id, user)))
}

// IsVotingOpen reports whether votes are accepted for the show
func (c *ContractReader) IsVotingOpen(ctx context.Context, showID string) (bool, error) {
	id, err := contracts.PrepareShowID("venue.isVotingOpen", showID)
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("isVotingOpen", id)))
}

// GetSelectedVenue returns the finalized venue and date. Both are zero until
// FinalizeVenue ran.
func (c *ContractReader) GetSelectedVenue(ctx context.Context, showID string) (*Selection, error) {
	id, err := contracts.PrepareShowID("venue.getSelectedVenue", showID)
	if err != nil {
		return nil, err
	}
	raw, rerr := c.invoker.Read(ctx, c.Request("getSelectedVenue", id))
	out, err := unwrap.Values(raw, rerr, 2)
	if err != nil {
		return nil, err
	}
	venue, err := unwrap.As[common.Address](out[0])
	if err != nil {
		return nil, err
	}
	date, err := unwrap.As[*big.Int](out[1])
	if err != nil {
		return nil, err
	}
	return &Selection{Venue: venue, Date: date}, nil
}

// SubmitProposalInput bids Venue for a show. Bribe is attached as native
// value and returned if the proposal loses.
type SubmitProposalInput struct {
	ShowID        string   `json:"showId,omitempty"`
	Venue         string   `json:"venue,omitempty"`
	ProposedDates []string `json:"proposedDates,omitempty"`
	Bribe         string   `json:"bribe,omitempty"`
}

// SubmitProposal submits a venue proposal
func (c *Contract) SubmitProposal(ctx context.Context, in SubmitProposalInput) (*sellout.MutationResult, error) {
	var (
		id    [32]byte
		venue common.Address
		dates []*big.Int
		bribe *big.Int
	)
	err := contracts.Prepare("venue.submitProposal", in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		venue = co.Address("venue", in.Venue)
		dates = co.BigInts("proposedDates", in.ProposedDates)
		bribe = co.BigInt("bribe", in.Bribe)
	})
	if err != nil {
		return nil, err
	}
	req := c.Request("submitProposal", id, venue, dates).WithValue(bribe)
	return contracts.Mutate(ctx, c.actor, req)
}

// VoteForVenue votes for a proposal
func (c *Contract) VoteForVenue(ctx context.Context, in ProposalInput) (*sellout.MutationResult, error) {
	id, index, err := in.prepare("venue.voteForVenue")
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("voteForVenue", id, index))
}

// DateVoteInput is the input of VoteForDate
type DateVoteInput struct {
	ShowID    string `json:"showId,omitempty"`
	DateIndex string `json:"dateIndex,omitempty"`
}

// VoteForDate votes for one of the leading proposal's dates
func (c *Contract) VoteForDate(ctx context.Context, in DateVoteInput) (*sellout.MutationResult, error) {
	var (
		id    [32]byte
		index *big.Int
	)
	err := contracts.Prepare("venue.voteForDate", in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		index = co.BigInt("dateIndex", in.DateIndex)
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("voteForDate", id, index))
}

// RefundBribe returns the bribe of a losing proposal to its proposer
func (c *Contract) RefundBribe(ctx context.Context, in ProposalInput) (*sellout.MutationResult, error) {
	id, index, err := in.prepare("venue.refundBribe")
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("refundBribe", id, index))
}

// FinalizeVenue closes voting and records the winning venue and date
func (c *Contract) FinalizeVenue(ctx context.Context, showID string) (*sellout.MutationResult, error) {
	id, err := contracts.PrepareShowID("venue.finalizeVenue", showID)
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("finalizeVenue", id))
}
