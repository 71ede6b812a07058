package enums

import "fmt"

// DonationStatus tracks a donation through the checkout lifecycle.
type DonationStatus string

const (
	DonationStatusPending DonationStatus = "pending"
	DonationStatusPaid    DonationStatus = "paid"
	DonationStatusFailed  DonationStatus = "failed"
)

var validDonationStatuses = []DonationStatus{
	DonationStatusPending,
	DonationStatusPaid,
	DonationStatusFailed,
}

// String implements fmt.Stringer.
func (d DonationStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DonationStatus) IsValid() bool {
	for _, candidate := range validDonationStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (d DonationStatus) IsTerminal() bool {
	return d == DonationStatusPaid || d == DonationStatusFailed
}

// ParseDonationStatus converts raw input into a DonationStatus.
func ParseDonationStatus(value string) (DonationStatus, error) {
	for _, candidate := range validDonationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid donation status %q", value)
}
