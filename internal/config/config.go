// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.yaml"
	ConfigDirName  = "terrable"
	EnvPrefix      = "TERRABLE"

	DefaultProvider     = "aws"
	DefaultPrefix       = "terrable"
	DefaultAWSDirectory = "~/.aws"
)

// ErrInvalidConfig wraps every validation failure so callers can distinguish bad input from I/O errors
var ErrInvalidConfig = errors.New("invalid configuration")

type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
	// Directory holding the shared "config" and "credentials" files
	Directory string `mapstructure:"directory"`
	// Custom S3-compatible endpoint; path-style addressing is used when set
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

type GCPConfig struct {
	Project string `mapstructure:"project"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

type Config struct {
	Provider string      `mapstructure:"provider" validate:"required,oneof=aws gcp minio"`
	Bucket   string      `mapstructure:"bucket" validate:"required"`
	Prefix   string      `mapstructure:"prefix"`
	AWS      AWSConfig   `mapstructure:"aws"`
	GCP      GCPConfig   `mapstructure:"gcp"`
	MinIO    MinIOConfig `mapstructure:"minio"`
}

// Every key that can be set through 'terrable config set', with its default value
var knownKeys = map[string]interface{}{
	"provider":         DefaultProvider,
	"bucket":           "",
	"prefix":           DefaultPrefix,
	"aws.region":       "",
	"aws.profile":      "",
	"aws.directory":    DefaultAWSDirectory,
	"aws.endpoint":     "",
	"gcp.project":      "",
	"minio.endpoint":   "",
	"minio.access_key": "",
	"minio.secret_key": "",
	"minio.region":     "",
	"minio.secure":     true,
}

// Returns the sorted list of supported configuration keys
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func IsKnownKey(key string) bool {
	_, ok := knownKeys[strings.ToLower(key)]
	return ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg := sl.Current().Interface().(Config)
		if cfg.Provider == "minio" && cfg.MinIO.Endpoint == "" {
			sl.ReportError(cfg.MinIO.Endpoint, "MinIO.Endpoint", "Endpoint", "required_for_minio", "")
		}
	}, Config{})
	return v
}

// Validate checks that the configuration is complete enough to talk to an object store
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got '%v'", field, fe.Param(), fe.Value())
	case "required_for_minio":
		return "minio.endpoint is required when provider is 'minio'"
	default:
		return fmt.Sprintf("%s failed '%s' validation (value '%v')", field, fe.Tag(), fe.Value())
	}
}

// ConfigManager layers command-line flags, TERRABLE_* environment variables, the YAML config file and defaults.
// Writes only ever touch the values stored in the file.
type ConfigManager struct {
	configPath string
	effective  *viper.Viper
	file       *viper.Viper
}

func getConfigPath() (string, error) {
	if override := os.Getenv(EnvPrefix + "_CONFIG"); override != "" {
		return override, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", ConfigDirName, ConfigFileName), nil
}

func NewConfigManager() (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(configPath)
}

// Creates a manager backed by the config file at configPath. A missing file is not an error
func NewConfigManagerAt(configPath string) (*ConfigManager, error) {
	m := &ConfigManager{configPath: configPath}

	m.effective = viper.New()
	m.effective.SetConfigFile(configPath)
	m.effective.SetConfigType("yaml")
	m.effective.SetEnvPrefix(EnvPrefix)
	m.effective.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	m.effective.AutomaticEnv()
	for key, value := range knownKeys {
		m.effective.SetDefault(key, value)
	}

	m.file = viper.New()
	m.file.SetConfigFile(configPath)
	m.file.SetConfigType("yaml")

	if err := readIfExists(m.effective); err != nil {
		return nil, err
	}
	if err := readIfExists(m.file); err != nil {
		return nil, err
	}

	return m, nil
}

func readIfExists(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error reading config file: %w", err)
}

func (m *ConfigManager) ConfigPath() string {
	return m.configPath
}

// Binds command-line flags to config keys so explicitly passed flags take precedence.
// bindings maps a config key (e.g. "aws.profile") to a flag name (e.g. "profile")
func (m *ConfigManager) BindFlags(flags *pflag.FlagSet, bindings map[string]string) error {
	for key, flagName := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := m.effective.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding flag '%s' to '%s': %w", flagName, key, err)
		}
	}
	return nil
}

// Resolves the effective configuration. Validation is left to the caller since
// not every command needs a bucket
func (m *ConfigManager) LoadConfig() (*Config, error) {
	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		expandHomeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := m.effective.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return &cfg, nil
}

func (m *ConfigManager) SetValue(key, value string) error {
	key = strings.ToLower(key)
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key: %s. Supported keys: %s", key, strings.Join(KnownKeys(), ", "))
	}

	m.file.Set(key, value)
	return m.persist()
}

// Returns the effective value for key and whether the key is supported
func (m *ConfigManager) GetValue(key string) (string, bool) {
	key = strings.ToLower(key)
	if !IsKnownKey(key) {
		return "", false
	}
	return m.effective.GetString(key), true
}

// Removes a value from the config file. Returns false when the file did not hold the key
func (m *ConfigManager) DeleteValue(key string) (bool, error) {
	key = strings.ToLower(key)
	if !IsKnownKey(key) {
		return false, fmt.Errorf("unknown config key: %s", key)
	}

	settings := m.file.AllSettings()
	if !deleteNested(settings, strings.Split(key, ".")) {
		return false, nil
	}

	replacement := viper.New()
	replacement.SetConfigFile(m.configPath)
	replacement.SetConfigType("yaml")
	if err := replacement.MergeConfigMap(settings); err != nil {
		return false, fmt.Errorf("error rebuilding configuration: %w", err)
	}
	m.file = replacement

	if err := m.persist(); err != nil {
		return false, err
	}
	return true, nil
}

func (m *ConfigManager) GetAllSettings() map[string]interface{} {
	return m.effective.AllSettings()
}

func (m *ConfigManager) persist() error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := m.file.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return readIfExists(m.effective)
}

func deleteNested(settings map[string]interface{}, parts []string) bool {
	if len(parts) == 1 {
		if _, ok := settings[parts[0]]; !ok {
			return false
		}
		delete(settings, parts[0])
		return true
	}

	child, ok := settings[parts[0]].(map[string]interface{})
	if !ok {
		return false
	}
	removed := deleteNested(child, parts[1:])
	if removed && len(child) == 0 {
		delete(settings, parts[0])
	}
	return removed
}

// ExpandPath resolves a leading "~" to the current user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

func expandHomeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		return ExpandPath(reflect.ValueOf(data).String())
	}
}
