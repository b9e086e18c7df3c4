package platform

import (
	"crypto/rand"
	"log/slog"

	"github.com/rcornwell/cryptocore/internal/nvstore"
)

// randRead is the UID-latch entropy source. It is a package variable so
// tests can substitute a failing source to exercise the 0xFF fallback
// path without faking /dev/urandom.
var randRead = rand.Read

// Simulated is an in-process Platform backed by an in-memory NV store. It
// is used by tests, by the daemon when no NV file is given, and as the
// base embedded by FileBacked.
type Simulated struct {
	store   *nvstore.Store
	uid     [16]byte
	latched bool
	log     *slog.Logger
	haltErr error
}

// NewSimulated constructs a Simulated platform over store. The device
// identity is not generated until the first ReadDeviceUID call, matching
// the "latched once at init" contract.
func NewSimulated(store *nvstore.Store, log *slog.Logger) *Simulated {
	if log == nil {
		log = slog.Default()
	}
	return &Simulated{store: store, log: log}
}

// NewSimulatedWithUID is like NewSimulated but pre-latches uid as the
// device identity instead of generating one on the first ReadDeviceUID
// call, for callers (tests, provisioning fixtures) that need a
// deterministic identity.
func NewSimulatedWithUID(store *nvstore.Store, uid [16]byte, log *slog.Logger) *Simulated {
	s := NewSimulated(store, log)
	s.uid = uid
	s.latched = true
	return s
}

// Store implements StoreProvider.
func (s *Simulated) Store() *nvstore.Store {
	return s.store
}

// ReadDeviceUID latches the device identity on first call and returns the
// same value on every subsequent call. On a real part this would read
// factory-fused identity bits; here it stands in with a one-time random
// draw, falling back to an all-0xFF identity (and a non-nil error) if that
// draw fails.
func (s *Simulated) ReadDeviceUID() ([16]byte, error) {
	if s.latched {
		return s.uid, nil
	}
	if _, err := randRead(s.uid[:]); err != nil {
		for i := range s.uid {
			s.uid[i] = 0xFF
		}
		s.latched = true
		s.log.Error("device UID latch failed, falling back to 0xFF", "err", err)
		return s.uid, err
	}
	s.latched = true
	return s.uid, nil
}

func (s *Simulated) NVWritePage(page Page, contents [nvstore.PageSize]byte) bool {
	switch page {
	case Page0:
		s.store.Page0 = nvstore.DecodePage0(contents)
	case Page1:
		s.store.Page1 = nvstore.DecodePage1(contents)
	default:
		return false
	}
	return true
}

func (s *Simulated) EnterBootloader() error {
	s.log.Info("simulated bootloader entry requested")
	return nil
}

func (s *Simulated) SwitchToExternalClock() error {
	s.log.Debug("simulated clock source switched to external")
	return nil
}

func (s *Simulated) Idle() {
	// Nothing to do on a hosted target; real firmware would enter a
	// low-power sleep state here.
}

func (s *Simulated) Halt(reason string) {
	s.log.Error("halt", "reason", reason)
	s.haltErr = &HaltError{Reason: reason}
	panic(s.haltErr)
}

func (s *Simulated) SetReadyPin(asserted bool) {
	s.log.Debug("ready pin", "asserted", asserted)
}

// HaltError is the panic value Simulated.Halt raises; internal/mainloop
// recovers it at the top of the loop goroutine to convert it into a clean
// shutdown rather than crashing the process.
type HaltError struct {
	Reason string
}

func (h *HaltError) Error() string {
	return "device halt: " + h.Reason
}
