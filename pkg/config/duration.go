package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be greater than zero, got %v", d)
	}
	return nil
}

// ValidateDurationRange requires lo <= d <= hi.
func ValidateDurationRange(d, lo, hi time.Duration) error {
	switch {
	case lo > hi:
		return fmt.Errorf("empty range [%v, %v]", lo, hi)
	case d < lo || d > hi:
		return fmt.Errorf("%v is outside [%v, %v]", d, lo, hi)
	}
	return nil
}
