package sync

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Output formats of the show command.
const (
	OutputText = "text"
	OutputCSV  = "csv"
)

// PersonWriter prints looked up people.
type PersonWriter interface {
	// WritePerson prints person; codes are only printed when requested.
	WritePerson(person Person, codes []Code) error
	// WriteNotFound prints a lookup that matched nobody.
	WriteNotFound(email string) error
	Flush() error
}

// NewPersonWriter returns the writer for format. Codes cannot be shown as CSV.
func NewPersonWriter(w io.Writer, format string, showCodes bool) (PersonWriter, error) {
	switch format {
	case "", OutputText:
		return &textPersonWriter{w: w, showCodes: showCodes}, nil
	case OutputCSV:
		if showCodes {
			return nil, errors.New("cannot show codes in csv")
		}
		cw := csv.NewWriter(w)
		err := cw.Write([]string{"name", "pronouns", "email", "phone", "address", "city", "state"})
		return &csvPersonWriter{w: cw}, err
	default:
		return nil, fmt.Errorf("unsupported output format %q, expected %s or %s", format, OutputText, OutputCSV)
	}
}

func (p Person) Name() string {
	return strings.TrimSpace(p.FirstName() + " " + p.LastName())
}

func (p Person) Pronouns() string {
	v, _ := p.StringForPath("pronouns.pronounName")
	return v
}

func (p Person) addressField(field string) string {
	v, _ := p.preferred("addresses", field)
	return v
}

type textPersonWriter struct {
	w         io.Writer
	showCodes bool
}

func (t *textPersonWriter) WritePerson(person Person, codes []Code) error {
	pronouns := person.Pronouns()
	if pronouns == "" {
		pronouns = "??"
	}
	fmt.Fprintf(t.w, "%s (%s)\n", person.Name(), pronouns)
	if email := person.PreferredEmail(); email != "" {
		fmt.Fprintf(t.w, "Email: %s\n", email)
	}
	if line1 := strings.TrimSpace(person.addressField("addressLine1") + " " + person.addressField("addressLine2")); line1 != "" {
		fmt.Fprintf(t.w, "Address: %s, %s %s\n", line1, person.addressField("city"), person.addressField("stateOrProvince"))
	}
	if phone := person.PreferredPhone(); phone != "" {
		fmt.Fprintf(t.w, "Phone: %s\n", phone)
	}
	if t.showCodes {
		fmt.Fprintln(t.w, "Activist Codes")
		for _, c := range codes {
			fmt.Fprintf(t.w, "  %s\n", c.Name)
		}
	}
	return nil
}

func (t *textPersonWriter) WriteNotFound(email string) error {
	_, err := fmt.Fprintf(t.w, "Nothing found for %s\n", email)
	return err
}

func (t *textPersonWriter) Flush() error {
	return nil
}

type csvPersonWriter struct {
	w *csv.Writer
}

func (c *csvPersonWriter) WritePerson(person Person, codes []Code) error {
	return c.w.Write([]string{
		person.Name(),
		person.Pronouns(),
		person.PreferredEmail(),
		person.PreferredPhone(),
		strings.TrimSpace(person.addressField("addressLine1") + " " + person.addressField("addressLine2")),
		person.addressField("city"),
		person.addressField("stateOrProvince"),
	})
}

func (c *csvPersonWriter) WriteNotFound(email string) error {
	return c.w.Write([]string{"", "", email, "", "", "", ""})
}

func (c *csvPersonWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
