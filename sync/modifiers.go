package sync

import (
	"fmt"
	"log"
	"strings"

	"github.com/biter777/countries"
	"github.com/tidwall/gjson"
)

// registerModifiers adds the gjson modifiers available to field mappings.
func registerModifiers() {

	// @phone:<region> formats a number as E.164, parsing it relative to region (default US)
	gjson.AddModifier("phone", func(json, arg string) string {
		number := strings.TrimSpace(gjson.Parse(json).String())
		if number == "" {
			return ""
		}
		formatted, err := FormatPhoneNumber(number, arg)
		if err != nil {
			log.Printf("Warning: failed to parse phone number %q with region %q: %v (passing through unchanged)", number, arg, err)
			return jsonString(number)
		}
		return jsonString(formatted)
	})

	// @countryCode maps a country name or alpha-2/alpha-3 code to its alpha-2 code
	gjson.AddModifier("countryCode", func(json, arg string) string {
		s := gjson.Parse(json).String()
		c := countries.ByName(s) // will match on Alpha-2 / Alpha-3 / Name
		if countries.Unknown == c {
			return ""
		}
		return jsonString(c.Alpha2())
	})

	gjson.AddModifier("countryName", func(json, arg string) string {
		s := gjson.Parse(json).String()
		c := countries.ByName(s)
		if countries.Unknown == c {
			return ""
		}
		return jsonString(c.String()) // returns Country Name
	})

	gjson.AddModifier("digits", func(json, arg string) string {
		return jsonString(nonDigits.ReplaceAllString(gjson.Parse(json).String(), ""))
	})

	gjson.AddModifier("lower", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() {
			return ""
		}
		return jsonString(strings.ToLower(res.String()))
	})

	gjson.AddModifier("upper", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() {
			return ""
		}
		return jsonString(strings.ToUpper(res.String()))
	})

	gjson.AddModifier("trim", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() {
			return ""
		}
		return jsonString(strings.TrimSpace(res.String()))
	})

	gjson.AddModifier("contains", func(json, arg string) string {
		res := gjson.Parse(json)
		if res.IsArray() {
			values := res.Array()
			for _, v := range values {
				if strings.Contains(v.String(), arg) {
					return fmt.Sprintf("%t", true)
				}
			}
			return fmt.Sprintf("%t", false)
		}
		return fmt.Sprintf("%t", strings.Contains(res.String(), arg))
	})

	// @equals:<value> is a case insensitive comparison, e.g. can2_sms_status|@equals:subscribed
	gjson.AddModifier("equals", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() || res.String() == "" {
			return ""
		}
		return fmt.Sprintf("%t", strings.EqualFold(strings.TrimSpace(res.String()), arg))
	})

}
