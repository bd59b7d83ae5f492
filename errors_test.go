// SPDX-License-Identifier: EPL-2.0

package sonora

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ik5/sonora/command"
)

func TestSentinelErrors_ImplementError(t *testing.T) {
	t.Parallel()

	for name, err := range map[string]error{
		"ErrDevice":       ErrDevice,
		"ErrDecode":       ErrDecode,
		"ErrIO":           ErrIO,
		"ErrQueueFull":    ErrQueueFull,
		"ErrNotFound":     ErrNotFound,
		"ErrInvalidState": ErrInvalidState,
	} {
		if err == nil {
			t.Errorf("%s is nil", name)
		}
	}
}

func TestSentinelErrors_ComparisonAndWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("opening default device: %w", ErrDevice)
	if !errors.Is(wrapped, ErrDevice) {
		t.Error("errors.Is failed for wrapped ErrDevice")
	}
	if errors.Is(wrapped, ErrDecode) {
		t.Error("errors.Is should not match an unrelated sentinel")
	}

	joined := errors.Join(ErrIO, errors.New("additional context"))
	if !errors.Is(joined, ErrIO) {
		t.Error("errors.Is failed for joined ErrIO")
	}
}

func TestErrQueueFull_AliasesCommandPackage(t *testing.T) {
	t.Parallel()

	if !errors.Is(command.ErrQueueFull, ErrQueueFull) {
		t.Error("sonora.ErrQueueFull is not the same sentinel as command.ErrQueueFull")
	}
}

func TestPoisonedError_Message(t *testing.T) {
	t.Parallel()

	err := &PoisonedError{Target: 7, Reason: "index out of range"}
	want := "sonora: source 7 poisoned: index out of range"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAsPoisonedError_CopiesStatusFields(t *testing.T) {
	t.Parallel()

	status := command.Poisoned{Target: 3, Reason: "nil pointer dereference"}
	err := asPoisonedError(status)
	if err.Target != status.Target || err.Reason != status.Reason {
		t.Errorf("asPoisonedError(%+v) = %+v, fields do not match", status, err)
	}
}
