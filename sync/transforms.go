package sync

import (
	"fmt"
	"log"
	"strings"
)

// ApplyFieldTransforms applies configured transforms to fields already mapped into destination.
// Transforms are written as function:arg, for example onlyIfNotEqual:N/A.
func ApplyFieldTransforms(transforms map[string]string, destination Mappable) error {
	if len(transforms) == 0 {
		return nil
	}

	fields := destination.GetFields()

	for field, transform := range transforms {
		if _, exists := fields[field]; !exists {
			return fmt.Errorf("invalid transform, field %s does not exist", field)
		}

		function, arg, _ := strings.Cut(transform, ":")

		switch function {
		case "onlyIfNotEqual":
			if fieldValue, ok := fields[field].(string); ok && strings.EqualFold(fieldValue, arg) {
				destination.DeleteField(field)
			}

		case "warnIfEqual":
			if s := fmt.Sprintf("%v", fields[field]); arg == s {
				log.Printf("Warning: %s has value of '%v'\n", field, s)
			}

		case "default":
			if fields[field] == nil {
				destination.SetField(field, arg)
			} else if s, ok := fields[field].(string); ok && s == "" {
				destination.SetField(field, arg)
			}

		case "upper":
			if s, ok := fields[field].(string); ok {
				destination.SetField(field, strings.ToUpper(s))
			}

		case "truncate":
			var n int
			if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n <= 0 {
				return fmt.Errorf("invalid argument %s for transform %s", arg, transform)
			}
			if s, ok := fields[field].(string); ok && len([]rune(s)) > n {
				destination.SetField(field, string([]rune(s)[:n]))
			}

		default:
			return fmt.Errorf("unsupported transform: %s", transform)
		}
	}

	return nil
}
