package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tadbeer.com/hrms/attendance/model"
)

// RawEvent is one punch as reported by a terminal. Order is not
// guaranteed; the same physical punch may be re-delivered on later syncs.
type RawEvent struct {
	SubjectUID string
	Timestamp  time.Time
	// State and Punch are firmware-specific codes (verification method,
	// in/out key). They are logged, never interpreted.
	State int
	Punch int
}

// Adapter is the capability surface of one terminal session. One
// implementation per provider; Device.Provider selects it.
type Adapter interface {
	Connect(ctx context.Context) error
	// FetchEvents returns every buffered punch. An idle terminal returns
	// an empty slice, which is a normal outcome.
	FetchEvents(ctx context.Context) ([]RawEvent, error)
	// SetMatchingEnabled toggles the terminal's local matching. Matching
	// is disabled while reading so the bulk read is not interleaved with
	// live scans, and must be restored before disconnecting.
	SetMatchingEnabled(enabled bool) error
	Disconnect() error
}

// ErrUnreachable classifies every connect/auth/protocol failure; the
// orchestrator only needs the one kind, the cause stays in the message.
var ErrUnreachable = errors.New("device unreachable")

type UnreachableError struct {
	Device string
	Cause  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("device %s unreachable: %v", e.Device, e.Cause)
}

func (e *UnreachableError) Unwrap() error { return ErrUnreachable }

func unreachable(d model.Device, cause error) error {
	return &UnreachableError{Device: fmt.Sprintf("%s (%s:%d)", d.Name, d.IP, d.Port), Cause: cause}
}

// Factory builds an adapter for one device. Injected into the
// orchestrator so tests can substitute a stub terminal.
type Factory func(d model.Device, timeout time.Duration) (Adapter, error)

// New is the production factory.
func New(d model.Device, timeout time.Duration) (Adapter, error) {
	switch d.Provider {
	case model.ProviderZKTeco, "":
		return newZKTeco(d, timeout), nil
	case model.ProviderADMS:
		return newADMS(d, timeout), nil
	default:
		return nil, fmt.Errorf("unknown device provider %q", d.Provider)
	}
}

// Pull runs one full read session: connect, disable matching, fetch,
// then restore and disconnect. Re-enable and disconnect are guaranteed
// on every exit path, including a failed fetch.
func Pull(ctx context.Context, a Adapter) (events []RawEvent, err error) {
	if err = a.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if derr := a.Disconnect(); derr != nil && err == nil {
			err = derr
		}
	}()

	if err = a.SetMatchingEnabled(false); err != nil {
		return nil, err
	}
	defer func() {
		if eerr := a.SetMatchingEnabled(true); eerr != nil && err == nil {
			err = eerr
		}
	}()

	return a.FetchEvents(ctx)
}

// Probe is the connect-only health check behind the test-connection
// action. It never reads events and never touches the ledger.
func Probe(ctx context.Context, a Adapter) error {
	if err := a.Connect(ctx); err != nil {
		return err
	}
	return a.Disconnect()
}
