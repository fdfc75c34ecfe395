package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is the dotenv file loaded when none is named explicitly.
const DefaultEnvFile = ".env"

// configOptions holds optional configuration for LoadConfigFromEnvironment.
type configOptions struct {
	envFile         string
	envFileRequired bool
	mappingFile     string
	environment     CompositeEnvVar
	secretResolver  SecretResolver
	skipSecrets     bool
}

// ConfigOption is a functional option for configuring LoadConfigFromEnvironment.
type ConfigOption func(*configOptions)

// ConfigWithEnvFile names the dotenv file to load before expanding ${VAR} references.
// A missing file is an error only when required is true.
func ConfigWithEnvFile(filename string, required bool) ConfigOption {
	return func(o *configOptions) {
		o.envFile = filename
		o.envFileRequired = required
	}
}

// ConfigWithMappingFile layers an operator mapping file over the embedded defaults.
func ConfigWithMappingFile(filename string) ConfigOption {
	return func(o *configOptions) {
		o.mappingFile = filename
	}
}

// ConfigWithEnvironment replaces the process environment used for ${VAR} expansion.
func ConfigWithEnvironment(env CompositeEnvVar) ConfigOption {
	return func(o *configOptions) {
		o.environment = env
	}
}

// ConfigWithSecretResolver sets how api.secretId is turned into an API key.
// Defaults to AWS Secrets Manager.
func ConfigWithSecretResolver(resolver SecretResolver) ConfigOption {
	return func(o *configOptions) {
		o.secretResolver = resolver
	}
}

// ConfigWithoutSecrets skips resolving api.secretId, for commands that make no API calls.
func ConfigWithoutSecrets() ConfigOption {
	return func(o *configOptions) {
		o.skipSecrets = true
	}
}

// LoadDotEnv loads filename into the process environment without overriding
// variables that are already set.
func LoadDotEnv(filename string, required bool) error {
	if filename == "" {
		return nil
	}
	err := godotenv.Load(filename)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", filename, err)
	}
	return nil
}

// LoadConfigFromEnvironment loads the embedded required and default mappings,
// the optional operator mapping file and the dotenv file, and resolves the API key.
func LoadConfigFromEnvironment(ctx context.Context, embeddedMappings EmbeddedMappings, opts ...ConfigOption) (Config, error) {
	mustBeInitialised()

	options := configOptions{
		envFile:     DefaultEnvFile,
		environment: ProcessEnvironment{},
	}
	for _, opt := range opts {
		opt(&options)
	}

	var result Config

	if err := LoadDotEnv(options.envFile, options.envFileRequired); err != nil {
		return result, err
	}

	requiredMappingFile, err := embeddedMappings.MustFindRequiredMappingFile()
	if err != nil {
		return result, fmt.Errorf("failed to read required mapping file %w", err)
	}

	defaultsMappingFile, err := embeddedMappings.MustFindDefaultsMappingFile()
	if err != nil {
		return result, fmt.Errorf("failed to read defaults mapping file %w", err)
	}

	operatorMappingFile, err := ReadMappingFile(options.mappingFile)
	if err != nil {
		return result, err
	}

	result, err = YAMLConfigUnmarshaler{}.Unmarshal(
		options.environment,
		requiredMappingFile,
		defaultsMappingFile,
		operatorMappingFile,
	)
	if err != nil {
		return result, fmt.Errorf("failed to load config %w", err)
	}

	if err = result.Validate(); err != nil {
		return result, fmt.Errorf("invalid config: %w", err)
	}

	if result.API.SecretID != "" && !options.skipSecrets {
		resolver := options.secretResolver
		if resolver == nil {
			resolver = AWSSecretResolver{}
		}
		key, err := resolver.ResolveSecret(ctx, result.API.SecretID)
		if err != nil {
			return result, fmt.Errorf("failed to resolve api key from secret %q: %w", result.API.SecretID, err)
		}
		result.API.Key = key
	}

	return result, nil
}

// RequireAPICredentials reports a missing application name or API key.
func (c Config) RequireAPICredentials() error {
	if c.API.ApplicationName == "" {
		return errors.New("EveryAction application name is not set (EVERYACTION_APP_NAME)")
	}
	if c.API.Key == "" {
		return errors.New("EveryAction API key is not set (EVERYACTION_API_KEY or api.secretId)")
	}
	return nil
}

// InputFileFromEnvironment returns the input file named by envVar when no
// argument was given on the command line.
func InputFileFromEnvironment(envVar string) string {
	return os.Getenv(envVar)
}
