package sync

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// Field groups in the field mapping documentation.
const (
	GroupPerson      = "Person"
	GroupAddress     = "Address"
	GroupCustomField = "Custom field"
	GroupCodes       = "Codes"
)

// FieldDocRow represents a single row in the field mapping documentation.
type FieldDocRow struct {
	FieldName  string // EveryAction field (e.g., "firstName", "zipOrPostalCode")
	Label      string // Human readable field name (e.g., "zip or postal code")
	Group      string // Person, Address, Custom field or Codes
	FieldType  string // Text, Boolean, Phone, Email or Code
	SourcePath string // Action Network column or gjson path
	Notes      string // Mapping notes (modifiers, transforms, ids)
}

// FieldDocumentation contains all field documentation for a configuration.
type FieldDocumentation struct {
	Flavour Flavour
	Rows    []FieldDocRow
}

// GenerateFieldDocumentation documents how the columns of an export map onto EveryAction.
func GenerateFieldDocumentation(config Config) FieldDocumentation {
	doc := FieldDocumentation{
		Flavour: ActionNetwork2EveryAction,
		Rows:    []FieldDocRow{},
	}
	if initialisedFlavour != nil {
		doc.Flavour = *initialisedFlavour
	}

	columns := config.Columns
	addColumn := func(field, fieldType, column, notes string) {
		if column == "" {
			return
		}
		doc.Rows = append(doc.Rows, FieldDocRow{
			FieldName:  field,
			Label:      fieldLabel(field),
			Group:      GroupPerson,
			FieldType:  fieldType,
			SourcePath: column,
			Notes:      notes,
		})
	}
	addColumn("email", "Email", columns.Email, "Match candidate")
	addColumn("firstName", "Text", columns.FirstName, "Only fills empty names unless --update")
	addColumn("lastName", "Text", columns.LastName, "Only fills empty names unless --update")
	addColumn("isSubscribed", "Boolean", columns.SubscriptionStatus, `False when "unsubscribed"`)
	addColumn("phones", "Phone", columns.Mobile, fmt.Sprintf(`Cell phone, opted in when %s is "subscribed"`, columns.SMSStatus))
	for _, column := range columns.Phones {
		addColumn("phones", "Phone", column, "Other phone")
	}

	processFieldMappings(&doc.Rows, config.AddressMappings, config.AddressTransforms)

	keys := make([]string, 0, len(config.CustomFields.Columns))
	byKey := make(map[string]string)
	for _, column := range config.CustomFields.Columns {
		k := strcase.ToLowerCamel(column)
		keys = append(keys, k)
		byKey[k] = column
	}
	sort.Strings(keys)
	for _, k := range keys {
		notes := "Not synced (no customFieldId)"
		if id, exists := config.CustomFields.IDs[k]; exists {
			notes = fmt.Sprintf("customFieldId %d", id)
		}
		doc.Rows = append(doc.Rows, FieldDocRow{
			FieldName:  k,
			Label:      fieldLabel(k),
			Group:      GroupCustomField,
			FieldType:  "Text",
			SourcePath: byKey[k],
			Notes:      notes,
		})
	}

	if columns.Tags != "" {
		notes := fmt.Sprintf("Split on %q", tagDelimiters(config))
		if config.Tags.MappingFile != "" {
			notes = fmt.Sprintf("%s | Mapped via %s", notes, config.Tags.MappingFile)
		}
		doc.Rows = append(doc.Rows, FieldDocRow{
			FieldName:  "activistCodes",
			Label:      "activist codes and tags",
			Group:      GroupCodes,
			FieldType:  "Code",
			SourcePath: columns.Tags,
			Notes:      notes,
		})
	}

	return doc
}

func tagDelimiters(config Config) string {
	if config.Tags.Delimiters == "" {
		return DefaultTagDelimiters
	}
	return config.Tags.Delimiters
}

func fieldLabel(field string) string {
	return strcase.ToDelimited(field, ' ')
}

// processFieldMappings extracts field documentation from a FieldMappings struct.
// Fields are processed in sorted order by field name for deterministic output.
func processFieldMappings(rows *[]FieldDocRow, mappings FieldMappings, transforms map[string]string) {
	// Strings
	for _, field := range sortedKeys(mappings.Strings) {
		*rows = append(*rows, createFieldDocRow(field, mappings.Strings[field], "Text", transforms))
	}

	// Booleans
	for _, field := range sortedKeys(mappings.Booleans) {
		*rows = append(*rows, createFieldDocRow(field, mappings.Booleans[field], "Boolean", transforms))
	}
}

// sortedKeys returns the keys of a map[string]string in sorted order.
func sortedKeys(m map[string]string) []string {
	keys := FieldMapsKeys(m)
	sort.Strings(keys)
	return keys
}

// createFieldDocRow creates a FieldDocRow from an address mapping.
func createFieldDocRow(field string, sourcepathwithmodifiers string, fieldtype string, transforms map[string]string) FieldDocRow {
	row := FieldDocRow{
		FieldName: field,
		Label:     fieldLabel(field),
		Group:     GroupAddress,
		FieldType: fieldtype,
	}

	sourcePath, modifiers := parseSourcePath(sourcepathwithmodifiers)
	row.SourcePath = sourcePath

	notes := []string{}
	for _, modifier := range modifiers {
		notes = append(notes, formatTransformNote(modifier))
	}
	if transform, exists := transforms[field]; exists {
		notes = append(notes, formatTransformNote(transform))
	}
	row.Notes = strings.Join(notes, " | ")

	return row
}

// parseSourcePath extracts the source path and modifiers from a mapping value.
// e.g., "country|@countryCode" -> ("country", ["@countryCode"])
func parseSourcePath(value string) (string, []string) {
	if value == "" {
		return "(computed)", nil
	}
	if len(value) >= 2 && value[0] == '`' && value[len(value)-1] == '`' {
		return "(static)", []string{"static:" + value[1:len(value)-1]}
	}

	parts := strings.Split(value, "|")
	sourcePath := strings.ReplaceAll(parts[0], `\`, "")
	var modifiers []string

	for i := 1; i < len(parts); i++ {
		if strings.HasPrefix(parts[i], "@") {
			modifiers = append(modifiers, parts[i])
		}
	}

	return sourcePath, modifiers
}

// formatTransformNote formats a modifier or transform into a human-readable note.
func formatTransformNote(transform string) string {
	name, arg, hasArg := strings.Cut(transform, ":")
	switch {
	case name == "static":
		return fmt.Sprintf("Always %q", arg)
	case name == "warnIfEqual" && arg == "":
		return "Warns if empty"
	case name == "warnIfEqual":
		return fmt.Sprintf("Warns if %q", arg)
	case name == "onlyIfNotEqual":
		return fmt.Sprintf("Only syncs if not %q", arg)
	case name == "default":
		return fmt.Sprintf("Defaults to %q", arg)
	case name == "truncate":
		return fmt.Sprintf("Truncated to %s characters", arg)
	case name == "upper":
		return "Converts to uppercase"
	case strings.HasPrefix(name, "@") && hasArg:
		return fmt.Sprintf("Uses %s:%s modifier", name, arg)
	case strings.HasPrefix(name, "@"):
		return fmt.Sprintf("Uses %s modifier", name)
	default:
		// Return the transform as-is if not recognized
		return fmt.Sprintf("Transform: %s", transform)
	}
}

// FormatCSV formats the field documentation as CSV.
func (d FieldDocumentation) FormatCSV() (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{fmt.Sprintf("# Flavour: %s", d.Flavour)}); err != nil {
		return "", err
	}

	headers := []string{"EveryAction Field", "Label", "Group", "Field Type", "Action Network Column", "Mapping Notes"}
	if err := writer.Write(headers); err != nil {
		return "", err
	}

	for _, row := range d.Rows {
		record := []string{row.FieldName, row.Label, row.Group, row.FieldType, row.SourcePath, row.Notes}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
