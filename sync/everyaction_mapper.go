package sync

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/sjson"
)

// EveryAction email type for personal addresses.
const EmailTypePersonal = "P"

// AddressFields are the EveryAction address fields read from a person.
var AddressFields = []string{"addressLine1", "addressLine2", "city", "stateOrProvince", "zipOrPostalCode", "countryCode"}

// EmailCandidate is a people/find match candidate for one email.
func EmailCandidate(email string) ([]byte, error) {
	return sjson.SetBytes([]byte("{}"), "emails", []map[string]interface{}{{"email": email}})
}

// MatchCandidates returns the people/find bodies used to look up record:
// by email, then by phone.
func MatchCandidates(record ContactRecord) [][]byte {
	var result [][]byte
	if record.Email != "" {
		if b, err := EmailCandidate(record.Email); err == nil {
			result = append(result, b)
		}
	}
	if len(record.Phones) == 0 {
		return result
	}
	// alongside an email a phone only helps when the name is known; a row
	// without an email is matched on its phone and whatever name it has
	hasName := record.FirstName != "" && record.LastName != ""
	if record.Email != "" && !hasName {
		return result
	}
	phone := record.Phones[0]
	if mobile, exists := record.Mobile(); exists {
		phone = mobile
	}
	doc := []byte("{}")
	var err error
	if record.FirstName != "" {
		doc, _ = sjson.SetBytes(doc, "firstName", record.FirstName)
	}
	if record.LastName != "" {
		doc, _ = sjson.SetBytes(doc, "lastName", record.LastName)
	}
	doc, err = sjson.SetBytes(doc, "phones", []map[string]interface{}{{"phoneNumber": phone.Number}})
	if err == nil {
		result = append(result, doc)
	}
	return result
}

// PersonPayload builds a findOrCreate body for record. A vanID above zero
// updates that person. Custom fields without a configured id are left out.
func PersonPayload(record ContactRecord, vanID int, customFieldIDs map[string]int) ([]byte, error) {
	doc := []byte("{}")
	var err error
	set := func(path string, value interface{}) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}

	if vanID > 0 {
		set("vanId", vanID)
	}
	if record.FirstName != "" {
		set("firstName", record.FirstName)
	}
	if record.LastName != "" {
		set("lastName", record.LastName)
	}

	if record.Email != "" {
		email := map[string]interface{}{
			"email":       record.Email,
			"type":        EmailTypePersonal,
			"isPreferred": true,
		}
		if record.Subscribed != nil {
			email["isSubscribed"] = *record.Subscribed
		}
		set("emails", []map[string]interface{}{email})
	}

	if len(record.Phones) > 0 {
		var phones []map[string]interface{}
		for i, p := range record.Phones {
			phone := map[string]interface{}{"phoneNumber": p.Number}
			if p.Type != "" {
				phone["phoneType"] = p.Type
			}
			if p.OptInStatus != "" {
				phone["phoneOptInStatus"] = p.OptInStatus
			}
			if i == 0 {
				phone["isPreferred"] = true
			}
			phones = append(phones, phone)
		}
		set("phones", phones)
	}

	if !record.Address.IsEmpty() {
		set("addresses", []map[string]interface{}{record.Address.Fields})
	}

	if len(record.CustomFields) > 0 && len(customFieldIDs) > 0 {
		keys := make([]string, 0, len(record.CustomFields))
		for k := range record.CustomFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var values []map[string]interface{}
		for _, k := range keys {
			if id, exists := customFieldIDs[k]; exists {
				values = append(values, map[string]interface{}{
					"customFieldId": id,
					"assignedValue": record.CustomFields[k],
				})
			}
		}
		if len(values) > 0 {
			set("customFieldValues", values)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to build person payload: %w", err)
	}
	return doc, nil
}

// CanvassResponsesPayload applies activist codes without recording contact history.
func CanvassResponsesPayload(codes []Code) ([]byte, error) {
	var responses []map[string]interface{}
	for _, c := range codes {
		responses = append(responses, map[string]interface{}{
			"activistCodeId": c.ID,
			"action":         "Apply",
			"type":           "ActivistCode",
		})
	}
	doc, err := sjson.SetBytes([]byte(`{"canvassContext":{"omitActivistCodeContactHistory":true}}`), "responses", responses)
	if err != nil {
		return nil, fmt.Errorf("failed to build canvass responses payload: %w", err)
	}
	return doc, nil
}

// Person is an EveryAction person as returned by GET /v4/people/{vanId}.
type Person struct {
	Source
}

func NewPerson(json string) Person {
	return Person{Source: NewSource(json)}
}

func (p Person) VanID() int {
	v, _ := p.IntForPath("vanId")
	return int(v)
}

func (p Person) FirstName() string {
	v, _ := p.StringForPath("firstName")
	return v
}

func (p Person) LastName() string {
	v, _ := p.StringForPath("lastName")
	return v
}

// preferred reads field of the preferred entry of list, or of the first entry.
func (p Person) preferred(list string, field string) (string, bool) {
	if v, exists := p.StringForPath(fmt.Sprintf("%s.#(isPreferred==true).%s", list, field)); exists {
		return v, true
	}
	return p.StringForPath(fmt.Sprintf("%s.0.%s", list, field))
}

func (p Person) PreferredEmail() string {
	v, _ := p.preferred("emails", "email")
	return v
}

func (p Person) PreferredPhone() string {
	v, _ := p.preferred("phones", "phoneNumber")
	return v
}

// PreferredAddress returns the preferred address on one line.
func (p Person) PreferredAddress() string {
	var parts []string
	for _, field := range AddressFields {
		if v, _ := p.preferred("addresses", field); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// Contact converts the person into a Contact, reading national phone numbers
// relative to region. Tags are not part of a person and are left empty.
func (p Person) Contact(region string) Contact {
	record := ContactRecord{
		FirstName: p.FirstName(),
		LastName:  p.LastName(),
		Email:     p.PreferredEmail(),
	}
	if v, exists := p.preferred("emails", "isSubscribed"); exists && v != "" {
		subscribed := v == "true"
		record.Subscribed = &subscribed
	}
	for _, phone := range p.ArrayForPath("phones") {
		number, _ := phone.StringForPath("phoneNumber")
		if number == "" {
			continue
		}
		if formatted, err := FormatPhoneNumber(number, region); err == nil {
			number = formatted
		}
		phoneType, _ := phone.StringForPath("phoneType")
		optIn, _ := phone.StringForPath("phoneOptInStatus")
		record.Phones = append(record.Phones, PhoneNumber{Number: number, Type: phoneType, OptInStatus: optIn})
	}
	address := NewAddress()
	for _, field := range AddressFields {
		if v, _ := p.preferred("addresses", field); v != "" {
			address.SetField(field, v)
		}
	}
	if !address.IsEmpty() {
		record.Address = address
	}
	return Contact{ID: p.VanID(), Record: record}
}

// Code types resolvable from tag names.
const (
	CodeTypeActivistCode = "ActivistCode"
	CodeTypeTag          = "Tag"
)

// Code is an EveryAction activist code or Tag code.
type Code struct {
	ID          int
	Name        string
	Type        string
	Description string
	Status      string
}

// CodeCatalog resolves tag names to codes, ignoring case.
type CodeCatalog struct {
	byName map[string]Code
}

// NewCodeCatalog indexes activist codes and Tag codes by name. Activist codes
// win when a Tag has the same name; the ignored Tag names are returned.
func NewCodeCatalog(activistCodes []Code, tagCodes []Code) (*CodeCatalog, []string) {
	result := &CodeCatalog{byName: make(map[string]Code)}
	var duplicates []string
	for _, c := range activistCodes {
		result.byName[strings.ToLower(c.Name)] = c
	}
	for _, c := range tagCodes {
		k := strings.ToLower(c.Name)
		if _, exists := result.byName[k]; exists {
			duplicates = append(duplicates, c.Name)
			continue
		}
		result.byName[k] = c
	}
	return result, duplicates
}

func (c *CodeCatalog) Lookup(name string) (Code, bool) {
	code, exists := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return code, exists
}

// Codes returns the catalog sorted by type then name.
func (c *CodeCatalog) Codes() []Code {
	result := make([]Code, 0, len(c.byName))
	for _, code := range c.byName {
		result = append(result, code)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return result[i].Name < result[j].Name
	})
	return result
}
