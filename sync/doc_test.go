package sync

import (
	"strings"
	"testing"
)

func TestGenerateFieldDocumentation(t *testing.T) {
	config := testConfig()
	config.AddressTransforms = map[string]string{"zipOrPostalCode": "truncate:5"}
	config.CustomFields.Columns = append(config.CustomFields.Columns, "Favourite Colour")

	doc := GenerateFieldDocumentation(config)
	if doc.Flavour != ActionNetwork2EveryAction {
		t.Errorf("Expected flavour %s but have %s", ActionNetwork2EveryAction, doc.Flavour)
	}

	rows := make(map[string]FieldDocRow)
	for _, r := range doc.Rows {
		rows[r.Group+"/"+r.FieldName+"/"+r.SourcePath] = r
	}

	tests := []struct {
		key   string
		label string
		notes string
	}{
		{"Person/email/email", "email", "Match candidate"},
		{"Person/phones/Phone Number", "phones", "Other phone"},
		{"Address/countryCode/country", "country code", "Uses @countryCode modifier"},
		{"Address/zipOrPostalCode/zip_code", "zip or postal code", "Truncated to 5 characters"},
		{"Address/isPreferred/(static)", "is preferred", `Always "true"`},
		{"Custom field/committee/Committee", "committee", "customFieldId 42"},
		{"Custom field/favouriteColour/Favourite Colour", "favourite colour", "Not synced (no customFieldId)"},
		{"Codes/activistCodes/can2_user_tags", "activist codes and tags", `Split on ",|"`},
	}
	for _, tt := range tests {
		row, exists := rows[tt.key]
		if !exists {
			t.Errorf("Expected a row for %s", tt.key)
			continue
		}
		if row.Label != tt.label || row.Notes != tt.notes {
			t.Errorf("Expected %s to have label %q and notes %q but have %q and %q", tt.key, tt.label, tt.notes, row.Label, row.Notes)
		}
	}
}

func TestFieldDocumentation_FormatCSV(t *testing.T) {
	doc := FieldDocumentation{
		Flavour: ActionNetwork2EveryAction,
		Rows: []FieldDocRow{{
			FieldName:  "city",
			Label:      "city",
			Group:      GroupAddress,
			FieldType:  "Text",
			SourcePath: "can2_user_city",
			Notes:      "Converts to uppercase | Warns if empty",
		}},
	}
	out, err := doc.FormatCSV()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines but have %d:\n%s", len(lines), out)
	}
	if lines[0] != "# Flavour: "+ActionNetwork2EveryAction.String() {
		t.Errorf("Expected the flavour line but have %q", lines[0])
	}
	if lines[1] != "EveryAction Field,Label,Group,Field Type,Action Network Column,Mapping Notes" {
		t.Errorf("Expected headers but have %q", lines[1])
	}
	if lines[2] != "city,city,Address,Text,can2_user_city,Converts to uppercase | Warns if empty" {
		t.Errorf("Expected the city row but have %q", lines[2])
	}
}
