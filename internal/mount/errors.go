package mount

import (
	"errors"
	"fmt"
)

var (
	// ErrNotHandled means the URL is not an SMB or AFP share. It was handed to
	// the system opener instead.
	ErrNotHandled = errors.New("mount: not a mountable share URL")
	// ErrInvalidURL means the URL could not be parsed or names no host.
	ErrInvalidURL = errors.New("mount: invalid share URL")

	// ErrLaunch means the mount utility could not be started.
	ErrLaunch = errors.New("mount: could not launch mount utility")
	// ErrExitStatus means the mount utility exited non-zero.
	ErrExitStatus = errors.New("mount: mount utility failed")
	// ErrTimeout means the mount utility did not finish in time and was killed.
	ErrTimeout = errors.New("mount: mount utility timed out")

	// ErrAuthRequired means no mount appeared, most likely because the share
	// needs credentials. The caller should ask the user for them and retry.
	ErrAuthRequired = errors.New("mount: share not mounted, authentication likely required")
)

// Reason classifies a failed Mount for callers that branch on it.
type Reason int

const (
	ReasonAuthRequired Reason = iota
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonCanceled:
		return "canceled"
	default:
		return "auth required"
	}
}

// Error is returned by Mount when a share could not be mounted. Err holds the
// last mount utility failure; errors.Is matches both it and the reason's
// sentinel.
type Error struct {
	URL    string
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("mount %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("mount %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Reason == ReasonAuthRequired {
		errs = append(errs, ErrAuthRequired)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// exitError carries the exit code and stderr of a failed mount utility.
type exitError struct {
	code   int
	stderr string
}

func (e *exitError) Error() string {
	if e.stderr == "" {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return fmt.Sprintf("exit status %d: %s", e.code, e.stderr)
}

func (e *exitError) Unwrap() error { return ErrExitStatus }
