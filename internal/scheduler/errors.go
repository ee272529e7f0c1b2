package scheduler

import (
	"fmt"

	"github.com/rohmanhakim/spotcrime/pkg/failure"
)

type LookupKind string

const (
	LookupState     LookupKind = "state"
	LookupCity      LookupKind = "city"
	LookupInfoType  LookupKind = "info type"
	LookupDetailURL LookupKind = "detail url"
)

// LookupError reports user input that matches no known state, city or info type.
type LookupError struct {
	Kind  LookupKind
	Value string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Value)
}

func (e *LookupError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// InvalidAmountError reports a period amount outside 1..Available.
type InvalidAmountError struct {
	Amount    int
	Available int
}

func (e *InvalidAmountError) Error() string {
	if e.Available == 0 {
		return fmt.Sprintf("invalid amount %d: no periods available", e.Amount)
	}
	return fmt.Sprintf("invalid amount %d: must be between 1 and %d", e.Amount, e.Available)
}

func (e *InvalidAmountError) Severity() failure.Severity {
	return failure.SeverityFatal
}
