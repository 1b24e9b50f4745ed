package brc8888

import "context"

// DerivedAddresses are the fee addresses a reduced-payload deploy takes from
// its own transaction: output 0 is the reserve, output 1 the treasury.
type DerivedAddresses struct {
	Reserve  string
	Treasury string
}

// AddressResolver looks up the derived addresses of a deploy transaction.
// Implementations return an error wrapping errs.NotFound when the
// transaction has no usable outputs. Any other error is treated as an
// infrastructure failure and aborts validation.
type AddressResolver interface {
	ResolveAddresses(ctx context.Context, txHash string) (DerivedAddresses, error)
}

// TriggerPolicy decides whether an evolve's trigger condition is met given
// the ticker's lineage so far.
type TriggerPolicy interface {
	Allow(trigger Trigger, lineage []LineageEntry) error
}

// AllowAllTriggers accepts every trigger.
type AllowAllTriggers struct{}

func (AllowAllTriggers) Allow(Trigger, []LineageEntry) error {
	return nil
}
