package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/ledger"
	"github.com/talgya/dairy-sim/internal/pasture"
	"github.com/talgya/dairy-sim/internal/scenario"
	"github.com/talgya/dairy-sim/internal/tech"
	"github.com/talgya/dairy-sim/internal/weather"
)

var (
	ErrNotRunning      = errors.New("simulation not running")
	ErrAlreadyRunning  = errors.New("simulation already running")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrSaveVersion     = errors.New("unsupported save version")
)

// Rejection is returned by a command whose preconditions were not met.
// Nothing was changed.
type Rejection struct {
	Command string
	Reason  string
	Err     error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", r.Command, r.Reason)
}

func (r *Rejection) Unwrap() error { return r.Err }

// RejectionKind groups rejections for callers that map them to status codes.
type RejectionKind uint8

const (
	RejectInvalid      RejectionKind = iota // malformed or out-of-range input
	RejectNotFound                          // unknown id
	RejectInsufficient                      // cash, inventory or capacity
	RejectConflict                          // state does not allow the command
)

func (k RejectionKind) String() string {
	switch k {
	case RejectNotFound:
		return "not_found"
	case RejectInsufficient:
		return "insufficient"
	case RejectConflict:
		return "conflict"
	default:
		return "invalid"
	}
}

func (k RejectionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Kind classifies the rejection by its underlying error.
func (r *Rejection) Kind() RejectionKind {
	switch {
	case errors.Is(r.Err, herd.ErrUnknownAnimal),
		errors.Is(r.Err, herd.ErrUnknownBreed),
		errors.Is(r.Err, pasture.ErrUnknownPasture),
		errors.Is(r.Err, tech.ErrUnknownTechnology),
		errors.Is(r.Err, economy.ErrUnknownContract),
		errors.Is(r.Err, scenario.ErrUnknownScenario),
		errors.Is(r.Err, weather.ErrUnknownEvent),
		errors.Is(r.Err, ErrUnknownIncident):
		return RejectNotFound
	case errors.Is(r.Err, economy.ErrInsufficientFunds),
		errors.Is(r.Err, economy.ErrInsufficientInventory),
		errors.Is(r.Err, economy.ErrStorageFull),
		errors.Is(r.Err, pasture.ErrPastureUnavailable),
		errors.Is(r.Err, tech.ErrInsufficientPoints):
		return RejectInsufficient
	case errors.Is(r.Err, ErrNotRunning),
		errors.Is(r.Err, ErrAlreadyRunning),
		errors.Is(r.Err, tech.ErrAlreadyUnlocked),
		errors.Is(r.Err, tech.ErrAlreadyPurchased),
		errors.Is(r.Err, tech.ErrResearchBusy),
		errors.Is(r.Err, tech.ErrPrerequisites),
		errors.Is(r.Err, tech.ErrNotResearched),
		errors.Is(r.Err, weather.ErrEventActive),
		errors.Is(r.Err, pasture.ErrNothingToDrain),
		errors.Is(r.Err, ledger.ErrInvalidTier):
		return RejectConflict
	case errors.Is(r.Err, ledger.ErrUnknownKind),
		errors.Is(r.Err, ledger.ErrUnknownTier),
		errors.Is(r.Err, ledger.ErrInvalidAmount):
		return RejectInvalid
	default:
		return RejectInvalid
	}
}

func newRejection(cmd string, err error) *Rejection {
	return &Rejection{Command: cmd, Reason: err.Error(), Err: err}
}
