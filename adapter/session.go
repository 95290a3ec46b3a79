package adapter

import (
	"context"
	"errors"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
)

// Session pairs an Adapter with a Simulator that simulates from the
// adapter's sender. The two stay separate: Simulate produces the request,
// Execute submits it unchanged.
type Session struct {
	*Adapter
	simulator *Simulator
}

// NewSession creates a Session
func NewSession(a *Adapter, sim *Simulator) *Session {
	return &Session{
		Adapter:   a,
		simulator: sim,
	}
}

// Simulate dry-runs req as the session's sender
func (s *Session) Simulate(ctx context.Context, req evm.CallRequest) (evm.CallRequest, error) {
	prepared, err := s.simulator.Simulate(ctx, s.Sender(), req)
	if err != nil {
		var execErr *sellout.ExecutionError
		if errors.As(err, &execErr) {
			execErr.Strategy = s.Strategy().Name()
		}
		return req, err
	}
	return prepared, nil
}
