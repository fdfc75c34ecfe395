package sync

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/iancoleman/strcase"
)

var (
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrAmbiguousMatch    = errors.New("ambiguous match")
)

// ContactRecord is one person parsed from one row of an Action Network export.
type ContactRecord struct {
	FirstName string
	LastName  string
	Email     string
	// Subscribed is nil when the export carries no email subscription status.
	Subscribed *bool
	Phones     []PhoneNumber
	Address    Address
	Tags       []string
	// CustomFields are keyed by the lower camel form of the column name.
	CustomFields map[string]string
	// Warnings describe row data that was dropped while parsing.
	Warnings []string
}

// HasIdentifier reports whether the record has an email or a phone to match on.
func (r ContactRecord) HasIdentifier() bool {
	return r.Email != "" || len(r.Phones) > 0
}

// Key is the identifier used in logs: the email, or the first phone.
func (r ContactRecord) Key() string {
	if r.Email != "" {
		return r.Email
	}
	if len(r.Phones) > 0 {
		return r.Phones[0].Number
	}
	return "-"
}

// Mobile returns the first cell phone, if any.
func (r ContactRecord) Mobile() (PhoneNumber, bool) {
	for _, p := range r.Phones {
		if p.Type == PhoneTypeCell {
			return p, true
		}
	}
	return PhoneNumber{}, false
}

// ParseContactRecord reads a ContactRecord from row using the configured columns.
// Rows without an email or phone fail with ErrMissingIdentifier; unusable
// identifiers fail with ErrInvalidEmail or ErrInvalidPhone.
func ParseContactRecord(row Row, config Config, tagMapping TagMapping) (ContactRecord, error) {
	var result ContactRecord
	columns := config.Columns

	result.FirstName = row.Get(columns.FirstName)
	result.LastName = row.Get(columns.LastName)

	if columns.Email != "" {
		if email := strings.TrimSpace(row.Get(columns.Email)); email != "" {
			addr, err := mail.ParseAddress(email)
			if err != nil || addr.Address != email {
				return result, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
			}
			result.Email = email
		}
	}

	var phones []PhoneNumber
	var invalidPhone error
	region := config.PhoneRegion()
	if columns.Mobile != "" {
		if value := row.Get(columns.Mobile); value != "" {
			number, err := ParsePhoneNumber(value, region)
			if err != nil {
				invalidPhone = err
				result.Warnings = append(result.Warnings, fmt.Sprintf("dropped %s", columns.Mobile))
			} else {
				mobile := PhoneNumber{Number: number, Type: PhoneTypeCell, Column: columns.Mobile}
				switch strings.ToLower(row.Get(columns.SMSStatus)) {
				case "subscribed":
					mobile.OptInStatus = PhoneOptInOptedIn
				case "unsubscribed":
					mobile.OptInStatus = PhoneOptInOptedOut
				}
				phones = append(phones, mobile)
			}
		}
	}
	for _, column := range columns.Phones {
		value := row.Get(column)
		if value == "" {
			continue
		}
		number, err := ParsePhoneNumber(value, region)
		if err != nil {
			if invalidPhone == nil {
				invalidPhone = err
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped %s", column))
			continue
		}
		phones = append(phones, PhoneNumber{Number: number, Column: column})
	}
	result.Phones = MergePhones(nil, phones)

	if !result.HasIdentifier() {
		if invalidPhone != nil {
			return result, invalidPhone
		}
		return result, ErrMissingIdentifier
	}

	if columns.SubscriptionStatus != "" {
		if status := strings.TrimSpace(row.Get(columns.SubscriptionStatus)); status != "" {
			subscribed := !strings.EqualFold(status, "unsubscribed")
			result.Subscribed = &subscribed
		}
	}

	if !config.AddressMappings.IsEmpty() {
		source, err := NewRowSource(row)
		if err != nil {
			return result, fmt.Errorf("failed to read row %d: %w", row.Number, err)
		}
		address := NewAddress()
		MapFields(config.AddressMappings, source, address)
		if err = ApplyFieldTransforms(config.AddressTransforms, address); err != nil {
			return result, err
		}
		address.Compact()
		if !address.IsEmpty() {
			result.Address = address
		}
	}

	if columns.Tags != "" {
		result.Tags = tagMapping.Apply(SplitTags(row.Get(columns.Tags), config.Tags.Delimiters))
	}

	for _, column := range config.CustomFields.Columns {
		if value := row.Get(column); value != "" {
			if result.CustomFields == nil {
				result.CustomFields = make(map[string]string)
			}
			result.CustomFields[strcase.ToLowerCamel(column)] = value
		}
	}

	return result, nil
}

// Contact is a person as known by the CRM.
type Contact struct {
	// ID is the EveryAction vanId.
	ID     int
	Record ContactRecord
	Tags   []string
	// AddedTags are the tags a merge added to Tags. Only these are written on update.
	AddedTags []string
}

// Merge folds record into the contact. Tags and phones are unions so nothing
// already on the contact is discarded. Name and address are only filled when
// empty unless overwrite is set.
func (c Contact) Merge(record ContactRecord, overwrite bool) Contact {
	result := c
	existing := c.Record
	merged := existing

	if overwrite || existing.FirstName == "" {
		if record.FirstName != "" {
			merged.FirstName = record.FirstName
		}
	}
	if overwrite || existing.LastName == "" {
		if record.LastName != "" {
			merged.LastName = record.LastName
		}
	}
	if existing.Email == "" {
		merged.Email = record.Email
	}
	// an explicit status in EveryAction is never flipped
	if existing.Subscribed == nil && record.Subscribed != nil {
		merged.Subscribed = record.Subscribed
	}
	if overwrite {
		merged.Phones = MergePhones(record.Phones, existing.Phones)
	} else {
		merged.Phones = MergePhones(existing.Phones, record.Phones)
	}
	if record.Address.Fields != nil && (overwrite || existing.Address.IsEmpty()) {
		merged.Address = record.Address
	}
	if len(record.CustomFields) > 0 {
		merged.CustomFields = make(map[string]string)
		for k, v := range existing.CustomFields {
			merged.CustomFields[k] = v
		}
		for k, v := range record.CustomFields {
			merged.CustomFields[k] = v
		}
	}
	merged.Warnings = record.Warnings

	result.Tags, result.AddedTags = MergeTags(c.Tags, record.Tags)
	merged.Tags = result.Tags
	result.Record = merged
	return result
}
