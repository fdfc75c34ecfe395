package sync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// EveryAction phone types and opt in statuses.
const (
	PhoneTypeCell      = "C"
	PhoneOptInOptedIn  = "I"
	PhoneOptInOptedOut = "O"
)

var ErrInvalidPhone = errors.New("invalid phone")

// PhoneNumber is one phone of a contact.
type PhoneNumber struct {
	// Number is in E.164 format.
	Number string
	// Type is empty when the export does not say what kind of phone it is.
	Type        string
	OptInStatus string
	// Column names the CSV column the number came from.
	Column string
}

// Key identifies a number independent of formatting.
func (p PhoneNumber) Key() string {
	return phoneKey(p.Number)
}

// FormatPhoneNumber parses number relative to region and returns it in E.164 format.
func FormatPhoneNumber(number string, region string) (string, error) {
	num, err := parsePhoneNumber(number, region)
	if err != nil {
		return "", err
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// ParsePhoneNumber validates number and returns it in E.164 format.
// Numbers that cannot possibly be dialled are rejected with ErrInvalidPhone.
func ParsePhoneNumber(number string, region string) (string, error) {
	num, err := parsePhoneNumber(number, region)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPhone, number, err)
	}
	if !libphonenumber.IsPossibleNumber(num) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, number)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

func parsePhoneNumber(number string, region string) (*libphonenumber.PhoneNumber, error) {
	if region == "" {
		region = DefaultPhoneRegion
	}
	return libphonenumber.Parse(strings.TrimSpace(number), strings.ToUpper(region))
}

// phoneKey returns the national significant number, falling back to the digits
// of number when it cannot be parsed.
func phoneKey(number string) string {
	num, err := libphonenumber.Parse(number, DefaultPhoneRegion)
	if err != nil {
		return nonDigits.ReplaceAllString(number, "")
	}
	return libphonenumber.GetNationalSignificantNumber(num)
}

// MergePhones returns existing followed by the numbers of added that are not already present.
func MergePhones(existing []PhoneNumber, added []PhoneNumber) []PhoneNumber {
	result := make([]PhoneNumber, 0, len(existing)+len(added))
	seen := make(map[string]bool)
	for _, list := range [][]PhoneNumber{existing, added} {
		for _, p := range list {
			k := p.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			result = append(result, p)
		}
	}
	return result
}
