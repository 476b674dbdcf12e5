// Package config loads the deployer configuration from a YAML file, a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "deployer.yaml"

// NetworkConfig is the configuration of the chain to deploy to.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type NetworkConfig struct {
	RPCURL         string        `mapstructure:"rpc_url" yaml:"rpc_url"`                 // The URL of the EVM node
	DeployerKey    string        `mapstructure:"deployer_key" yaml:"deployer_key"`       // Secret: hex private key of the deployer account
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" yaml:"confirm_timeout"` // How long to wait for a deployment to be mined
}

// PathsConfig locates the inputs and outputs of a deployment.
type PathsConfig struct {
	Artifacts   string `mapstructure:"artifacts" yaml:"artifacts"`     // Root of the Hardhat artifacts
	Deployments string `mapstructure:"deployments" yaml:"deployments"` // Root of the chain-<id> deployment directories
}

// DeployConfig tunes the deployment transactions.
type DeployConfig struct {
	MaxAttempts uint          `mapstructure:"max_attempts" yaml:"max_attempts"` // Attempts per transaction; 1 disables retries
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`   // Base delay between attempts
}

// LogConfig configures the logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`             // debug, info, warn or error
	Development bool   `mapstructure:"development" yaml:"development"` // Human readable console output
}

// Config wraps the entire configuration of the deployer.
type Config struct {
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths"`
	Deploy  DeployConfig  `mapstructure:"deploy" yaml:"deploy"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// Validate checks the values which have no usable default.
func (c Config) Validate() error {
	var errs []error
	if c.Paths.Artifacts == "" {
		errs = append(errs, errors.New("paths.artifacts is required"))
	}
	if c.Paths.Deployments == "" {
		errs = append(errs, errors.New("paths.deployments is required"))
	}
	if c.Deploy.MaxAttempts == 0 {
		errs = append(errs, errors.New("deploy.max_attempts must be at least 1"))
	}
	if c.Network.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("network.confirm_timeout must be positive"))
	}

	return errors.Join(errs...)
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// LoadEnv loads the config from the environment variables only.
func LoadEnv() (*Config, error) {
	v := newViper()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadDotEnv sets the variables of the given .env files in the process environment. Missing
// files are skipped and variables which are already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("network.confirm_timeout", 2*time.Minute)
	v.SetDefault("paths.artifacts", "artifacts")
	v.SetDefault("paths.deployments", "ignition/deployments")
	v.SetDefault("deploy.max_attempts", 3)
	v.SetDefault("deploy.retry_delay", time.Second)
	v.SetDefault("log.level", "info")

	return v
}

var (
	// envBindings maps a config key to the environment variables that can provide its value.
	// The first name is the preferred one, the second is the name used by Hardhat projects,
	// which lets an existing .env file be reused as is.
	envBindings = map[string][]string{
		"network.rpc_url":         {"DEPLOYER_RPC_URL", "RPC_URL"},
		"network.deployer_key":    {"DEPLOYER_PRIVATE_KEY", "PRIVATE_KEY"},
		"network.confirm_timeout": {"DEPLOYER_CONFIRM_TIMEOUT"},
		"paths.artifacts":         {"DEPLOYER_ARTIFACTS_DIR"},
		"paths.deployments":       {"DEPLOYER_DEPLOYMENTS_DIR"},
		"deploy.max_attempts":     {"DEPLOYER_MAX_ATTEMPTS"},
		"deploy.retry_delay":      {"DEPLOYER_RETRY_DELAY"},
		"log.level":               {"DEPLOYER_LOG_LEVEL", "LOG_LEVEL"},
		"log.development":         {"DEPLOYER_LOG_DEVELOPMENT"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// BindEnv takes the key followed by the env var names.
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
