package domain

import "fmt"

// MarshalText encodes the kind by name, so JSON carries "jump" rather than 3.
func (k AdvanceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AdvanceKind) UnmarshalText(b []byte) error {
	for c := AdvanceEnded; c <= AdvanceBusy; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown advance kind %q", b)
}

// MarshalText encodes the kind by name.
func (k ConfirmKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ConfirmKind) UnmarshalText(b []byte) error {
	for c := ConfirmEnded; c <= ConfirmContinued; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown confirm kind %q", b)
}
