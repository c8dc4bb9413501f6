// Package eligibility decides which Climate Vouchers a household can still claim.
package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when an answer is not one of the accepted options.
var ErrInvalidInput = errors.New("invalid eligibility input")

// Residency is the applicant's residential status.
type Residency int

const (
	Citizen Residency = iota + 1
	PermanentResident
	OtherResidency
)

func (r Residency) String() string {
	switch r {
	case Citizen:
		return "Singapore Citizen"
	case PermanentResident:
		return "Permanent Resident"
	case OtherResidency:
		return "Others"
	}
	return "unknown"
}

// Property is the household's property type.
type Property int

const (
	HDB Property = iota + 1
	PrivateProperty
)

func (p Property) String() string {
	switch p {
	case HDB:
		return "HDB"
	case PrivateProperty:
		return "Private Residential Property"
	}
	return "unknown"
}

// Household is the four answers the rules depend on.
type Household struct {
	Residency  Residency
	Property   Property
	Claimed300 bool
	Claimed100 bool
}

// Outcome classifies a decision.
type Outcome string

const (
	OutcomeEligible    Outcome = "eligible"
	OutcomeClaimedAll  Outcome = "claimed_all"
	OutcomeNotEligible Outcome = "not_eligible"
)

// Decision is the result of evaluating a household.
type Decision struct {
	Outcome    Outcome `json:"outcome"`
	Voucher300 bool    `json:"voucher_300"`
	Voucher100 bool    `json:"voucher_100"`
	Message    string  `json:"message"`
}

const (
	msgBoth        = "You are eligible for both the 300 SGD and 100 SGD Climate Vouchers."
	msg300         = "You are eligible for the 300 SGD Climate Vouchers."
	msg100         = "You are eligible for the 100 SGD Climate Vouchers."
	msgClaimedAll  = "You have claimed all of the Climate Vouchers!"
	msgNotEligible = "You are not eligible for the Climate Vouchers."
)

// Evaluate applies the voucher rules. Citizens qualify for whatever they
// have not claimed. Permanent residents qualify the same way only when
// living in HDB flats. Everyone else is not eligible.
func Evaluate(h Household) (Decision, error) {
	if err := h.validate(); err != nil {
		return Decision{}, err
	}

	switch h.Residency {
	case PermanentResident:
		if h.Property != HDB {
			return notEligible(), nil
		}
		return unclaimed(h), nil
	case Citizen:
		return unclaimed(h), nil
	default:
		return notEligible(), nil
	}
}

func unclaimed(h Household) Decision {
	d := Decision{
		Outcome:    OutcomeEligible,
		Voucher300: !h.Claimed300,
		Voucher100: !h.Claimed100,
	}
	switch {
	case d.Voucher300 && d.Voucher100:
		d.Message = msgBoth
	case d.Voucher300:
		d.Message = msg300
	case d.Voucher100:
		d.Message = msg100
	default:
		d.Outcome = OutcomeClaimedAll
		d.Message = msgClaimedAll
	}
	return d
}

func notEligible() Decision {
	return Decision{Outcome: OutcomeNotEligible, Message: msgNotEligible}
}

func (h Household) validate() error {
	if h.Residency < Citizen || h.Residency > OtherResidency {
		return fmt.Errorf("%w: residency not set", ErrInvalidInput)
	}
	if h.Property < HDB || h.Property > PrivateProperty {
		return fmt.Errorf("%w: property type not set", ErrInvalidInput)
	}
	return nil
}

// ParseResidency accepts "citizen", "pr", "others" or the full option labels.
func ParseResidency(s string) (Residency, error) {
	switch normalize(s) {
	case "citizen", "singapore citizen", "sc":
		return Citizen, nil
	case "pr", "permanent resident":
		return PermanentResident, nil
	case "others", "other":
		return OtherResidency, nil
	}
	return 0, fmt.Errorf("%w: residency %q (want citizen, pr or others)", ErrInvalidInput, s)
}

// ParseProperty accepts "hdb" or "private" or the full option labels.
func ParseProperty(s string) (Property, error) {
	switch normalize(s) {
	case "hdb":
		return HDB, nil
	case "private", "private residential property":
		return PrivateProperty, nil
	}
	return 0, fmt.Errorf("%w: property type %q (want hdb or private)", ErrInvalidInput, s)
}

// ParseClaimed accepts yes/no answers to "have you claimed".
func ParseClaimed(s string) (bool, error) {
	switch normalize(s) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: claimed status %q (want yes or no)", ErrInvalidInput, s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
