package sync

import (
	"bytes"
	"testing"
)

const testPersonJSON = `{"vanId":123,"firstName":"Sam","lastName":"Jones","pronouns":{"pronounName":"they/them"},
	"emails":[{"email":"old@example.com"},{"email":"sam@example.com","isPreferred":true}],
	"phones":[{"phoneNumber":"4155552671","isPreferred":true}],
	"addresses":[{"addressLine1":"1 Market St","addressLine2":"Suite 2","city":"San Francisco","stateOrProvince":"CA"}]}`

func TestTextPersonWriter(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewPersonWriter(&buf, OutputText, true)
	if err != nil {
		t.Fatal(err)
	}
	if err = writer.WritePerson(NewPerson(testPersonJSON), []Code{{ID: 11, Name: "Volunteer"}}); err != nil {
		t.Fatal(err)
	}
	if err = writer.WritePerson(NewPerson(`{"firstName":"No","lastName":"Pronouns"}`), nil); err != nil {
		t.Fatal(err)
	}
	if err = writer.WriteNotFound("nobody@example.com"); err != nil {
		t.Fatal(err)
	}
	if err = writer.Flush(); err != nil {
		t.Fatal(err)
	}
	expected := "Sam Jones (they/them)\n" +
		"Email: sam@example.com\n" +
		"Address: 1 Market St Suite 2, San Francisco CA\n" +
		"Phone: 4155552671\n" +
		"Activist Codes\n" +
		"  Volunteer\n" +
		"No Pronouns (??)\n" +
		"Activist Codes\n" +
		"Nothing found for nobody@example.com\n"
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\nbut have:\n%s", expected, buf.String())
	}
}

func TestCSVPersonWriter(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewPersonWriter(&buf, OutputCSV, false)
	if err != nil {
		t.Fatal(err)
	}
	if err = writer.WritePerson(NewPerson(testPersonJSON), nil); err != nil {
		t.Fatal(err)
	}
	if err = writer.WriteNotFound("nobody@example.com"); err != nil {
		t.Fatal(err)
	}
	if err = writer.Flush(); err != nil {
		t.Fatal(err)
	}
	expected := "name,pronouns,email,phone,address,city,state\n" +
		"Sam Jones,they/them,sam@example.com,4155552671,1 Market St Suite 2,San Francisco,CA\n" +
		",,nobody@example.com,,,,\n"
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\nbut have:\n%s", expected, buf.String())
	}
}

func TestNewPersonWriter_Errors(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewPersonWriter(&buf, OutputCSV, true); err == nil {
		t.Errorf("Expected codes to be rejected for csv")
	}
	if _, err := NewPersonWriter(&buf, "xml", false); err == nil {
		t.Errorf("Expected an unsupported format error")
	}
}

func TestPersonContact(t *testing.T) {
	contact := NewPerson(testPersonJSON).Contact(DefaultPhoneRegion)
	if contact.ID != 123 || contact.Record.Email != "sam@example.com" {
		t.Errorf("Expected vanId 123 with the preferred email but have %+v", contact)
	}
	if contact.Record.Address.String("addressLine2") != "Suite 2" {
		t.Errorf("Expected the first address when none is preferred but have %v", contact.Record.Address.Fields)
	}
	if contact.Record.Subscribed != nil {
		t.Errorf("Expected no subscription status")
	}
}

func TestPersonContact_PhoneRegion(t *testing.T) {
	person := NewPerson(`{"vanId":5,"phones":[{"phoneNumber":"020 7946 0018","phoneType":"H"}]}`)
	contact := person.Contact("GB")
	if len(contact.Record.Phones) != 1 || contact.Record.Phones[0].Number != "+442079460018" {
		t.Fatalf("Expected the national number read as a GB number but have %+v", contact.Record.Phones)
	}
	merged := MergePhones(contact.Record.Phones, []PhoneNumber{{Number: "+442079460018", Type: PhoneTypeCell}})
	if len(merged) != 1 {
		t.Errorf("Expected the same number not to be added twice but have %+v", merged)
	}
}
