package models

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	ErrKeyGeneration           = errors.New("key generation failure")
	ErrPersistence             = errors.New("persistence failure")
	ErrNetworkDetection        = errors.New("network detection failure")
	ErrPeerAllocationExhausted = errors.New("peer allocation exhausted")
	ErrProcessExecution        = errors.New("process execution failure")
	ErrValidation              = errors.New("validation failure")
	ErrUnsupported             = errors.New("unsupported operation")
	ErrLocked                  = errors.New("another instance is currently running")
)

// ProcessError is a finished external command that exited non-zero.
type ProcessError struct {
	Program  string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	cmd := strings.TrimSpace(e.Program + " " + strings.Join(e.Args, " "))
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit status %d", cmd, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", cmd, e.ExitCode, e.Stderr)
}

// WrapKind marks err with kind unless err already carries it.
func WrapKind(kind, err error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Hint returns an actionable suggestion for err, or "" when there is none.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrValidation) && strings.Contains(err.Error(), "endpoint") {
		return "pass the address clients reach the server on with --endpoint (or --stun to discover it)"
	}
	if errors.Is(err, ErrLocked) {
		return "wait for the other roadguard run to finish, then retry"
	}
	if errors.Is(err, exec.ErrNotFound) {
		return "install wireguard-tools and iproute2, and make sure they are on PATH"
	}
	if errors.Is(err, os.ErrPermission) {
		return "try re-running with sudo"
	}
	var procErr *ProcessError
	if errors.As(err, &procErr) {
		stderr := strings.ToLower(procErr.Stderr)
		for _, s := range []string{"permission denied", "operation not permitted", "must be root", "access denied"} {
			if strings.Contains(stderr, s) {
				return "try re-running with sudo"
			}
		}
		if strings.Contains(stderr, "no such device") {
			return "bring the tunnel up first: systemctl start wg-quick@<iface>"
		}
	}
	return ""
}
