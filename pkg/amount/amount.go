package amount

import (
	"fmt"

	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
)

// minorUnitsPerDisplay is the fixed multiplier between the display value shown
// on the donation form and the minor currency unit stored in the ledger.
const minorUnitsPerDisplay int64 = 100

// tiers is the whitelist of donation display values. The checkout form offers
// exactly these presets; anything else is rejected before a session is created.
var tiers = []int64{10, 20, 30, 40, 50}

// Tiers returns the allowed display values in ascending order.
func Tiers() []int64 {
	out := make([]int64, len(tiers))
	copy(out, tiers)
	return out
}

// IsAllowed reports whether the display value is one of the preset tiers.
func IsAllowed(display int64) bool {
	for _, tier := range tiers {
		if tier == display {
			return true
		}
	}
	return false
}

// ToMinorUnits converts an allowed display value into minor currency units.
// Only whitelisted tiers are accepted.
func ToMinorUnits(display int64) (int64, error) {
	if !IsAllowed(display) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("amount %d is not an allowed donation tier", display)).
			WithDetails(map[string]any{"allowed": Tiers()})
	}
	return display * minorUnitsPerDisplay, nil
}

// FromMinorUnits converts minor currency units back into a display value. The
// input must divide exactly and land on an allowed tier.
func FromMinorUnits(cents int64) (int64, error) {
	if cents <= 0 || cents%minorUnitsPerDisplay != 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d is not a whole display amount", cents))
	}
	display := cents / minorUnitsPerDisplay
	if !IsAllowed(display) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("amount %d is not an allowed donation tier", display)).
			WithDetails(map[string]any{"allowed": Tiers()})
	}
	return display, nil
}

// IsAllowedMinorUnits reports whether the minor-unit amount corresponds to an
// allowed tier. The ledger uses this to validate rows built from session
// metadata.
func IsAllowedMinorUnits(cents int64) bool {
	_, err := FromMinorUnits(cents)
	return err == nil
}
