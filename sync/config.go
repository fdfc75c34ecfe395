package sync

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/config"
)

type Config struct {
	API             APISettings
	Retry           RetrySettings
	Columns         ColumnSettings
	AddressMappings FieldMappings
	// AddressTransforms are applied to mapped address fields, see ApplyFieldTransforms.
	AddressTransforms map[string]string
	CustomFields      CustomFieldSettings
	Tags              TagSettings
	Phones            PhoneSettings
}

type APISettings struct {
	Endpoint        string
	ApplicationName string `yaml:"applicationName"`
	Key             string
	// Mode selects the EveryAction database: 0 for VoterFile, 1 for MyCampaign.
	Mode int
	// SecretID names an AWS Secrets Manager secret holding the API key.
	// When set it takes precedence over Key.
	SecretID string `yaml:"secretId"`
}

type RetrySettings struct {
	Backoff string
}

// ColumnSettings names the Action Network export columns read for each contact.
type ColumnSettings struct {
	Email              string
	FirstName          string `yaml:"firstName"`
	LastName           string `yaml:"lastName"`
	Tags               string
	SubscriptionStatus string `yaml:"subscriptionStatus"`
	Mobile             string
	SMSStatus          string `yaml:"smsStatus"`
	Phones             []string
}

// IdentifierColumns returns the columns that can identify a contact.
func (c ColumnSettings) IdentifierColumns() []string {
	var result []string
	if c.Email != "" {
		result = append(result, c.Email)
	}
	if c.Mobile != "" {
		result = append(result, c.Mobile)
	}
	result = append(result, c.Phones...)
	return result
}

type CustomFieldSettings struct {
	Columns []string
	// IDs maps custom field keys (the lower camel form of the column) to EveryAction customFieldId values.
	IDs map[string]int `yaml:"ids"`
}

type TagSettings struct {
	Delimiters  string
	MappingFile string `yaml:"mappingFile"`
}

type PhoneSettings struct {
	DefaultRegion string `yaml:"defaultRegion"`
}

// FieldMappings maps EveryAction field names to gjson paths into a CSV row.
type FieldMappings struct {
	Strings  map[string]string
	Booleans map[string]string
}

func (m FieldMappings) AllKeys() []string {
	var result []string
	result = append(result, FieldMapsKeys(m.Strings)...)
	result = append(result, FieldMapsKeys(m.Booleans)...)
	sort.Strings(result)
	return result
}

func (m FieldMappings) IsEmpty() bool {
	return len(m.Strings) == 0 && len(m.Booleans) == 0
}

func FieldMapsKeys(m map[string]string) []string {
	result := make([]string, len(m))
	i := 0
	for k := range m {
		result[i] = k
		i++
	}
	return result
}

// Backoff returns the retry backoff, falling back to DefaultRetryBackoff.
func (c Config) Backoff() time.Duration {
	if c.Retry.Backoff == "" {
		return DefaultRetryBackoff
	}
	d, err := time.ParseDuration(c.Retry.Backoff)
	if err != nil || d < 0 {
		return DefaultRetryBackoff
	}
	return d
}

func (c Config) PhoneRegion() string {
	if c.Phones.DefaultRegion == "" {
		return DefaultPhoneRegion
	}
	return c.Phones.DefaultRegion
}

// Validate checks the settings every command relies on.
func (c Config) Validate() error {
	var errs []error
	if c.API.Endpoint == "" {
		errs = append(errs, errors.New("api.endpoint is required"))
	}
	if c.API.Mode != 0 && c.API.Mode != 1 {
		errs = append(errs, fmt.Errorf("api.mode must be 0 or 1, have %d", c.API.Mode))
	}
	if len(c.Columns.IdentifierColumns()) == 0 {
		errs = append(errs, errors.New("at least one of columns.email, columns.mobile or columns.phones is required"))
	}
	if c.Retry.Backoff != "" {
		if _, err := time.ParseDuration(c.Retry.Backoff); err != nil {
			errs = append(errs, fmt.Errorf("retry.backoff %q: %w", c.Retry.Backoff, err))
		}
	}
	return errors.Join(errs...)
}

type CompositeEnvVar interface {
	LookupEnv(key string) (string, bool)
}

// ProcessEnvironment resolves ${VAR} references from the process environment.
type ProcessEnvironment struct{}

func (ProcessEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnvironment resolves ${VAR} references from a fixed map.
type MapEnvironment map[string]string

func (m MapEnvironment) LookupEnv(key string) (string, bool) {
	v, exists := m[key]
	return v, exists
}

type YAMLConfigUnmarshaler struct{}

// Unmarshal merges sources in order, later sources overriding earlier ones.
func (u YAMLConfigUnmarshaler) Unmarshal(compev CompositeEnvVar, sources ...MappingFile) (Config, error) {
	var result Config
	var options []config.YAMLOption
	for _, s := range sources {
		if s.Length > 0 {
			options = append(options, config.Source(s.Reader))
		}
	}
	options = append(options, config.Expand(compev.LookupEnv))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml config %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml config %w", key, cause)
	}
	key := "api"
	err = yaml.Get(key).Populate(&result.API)
	if err != nil {
		return result, readError(key, err)
	}
	key = "retry"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.Retry)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "columns"
	err = yaml.Get(key).Populate(&result.Columns)
	if err != nil {
		return result, readError(key, err)
	}
	key = "addressMappings"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.AddressMappings)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "addressTransforms"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.AddressTransforms)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "customFields"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.CustomFields)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "tags"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.Tags)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "phones"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.Phones)
		if err != nil {
			return result, readError(key, err)
		}
	}

	return result, nil
}
