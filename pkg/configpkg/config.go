// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Transfer modes.
const (
	// TransferModeAtomic runs the record, debit and credit of a transfer in one db transaction.
	TransferModeAtomic = "atomic"
	// TransferModeSequential commits every transfer step on its own.
	TransferModeSequential = "sequential"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver         string `mapstructure:"DB_DRIVER"`
	DBSource         string `mapstructure:"DB_SOURCE"`
	ServerAddress    string `mapstructure:"SERVER_ADDRESS"`
	Environment      string `mapstructure:"GO_ENV"`
	MigrationOnStart bool   `mapstructure:"MIGRATION_ON_START"`
	TransferMode     string `mapstructure:"TRANSFER_MODE"`
	BalanceFloor     string `mapstructure:"BALANCE_FLOOR"` // empty means unrestricted
}

// Load reads configuration from file or environment variables.
//
// A missing app.env is tolerated, the environment alone can configure the app.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("GO_ENV", "production")
	v.SetDefault("MIGRATION_ON_START", true)
	v.SetDefault("TRANSFER_MODE", TransferModeAtomic)
	v.SetDefault("BALANCE_FLOOR", "")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if err := c.Validate(); err != nil {
		return c, err
	}

	return c, nil
}

// Validate checks the values that cannot be expressed as viper defaults.
func (c Config) Validate() error {
	switch c.TransferMode {
	case TransferModeAtomic, TransferModeSequential:
	default:
		return fmt.Errorf("unknown TRANSFER_MODE %q", c.TransferMode)
	}

	if _, err := c.Floor(); err != nil {
		return err
	}

	return nil
}

// Floor returns the configured balance floor. It is invalid when the balance is unrestricted.
func (c Config) Floor() (decimal.NullDecimal, error) {
	if c.BalanceFloor == "" {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(c.BalanceFloor)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid BALANCE_FLOOR %q: %w", c.BalanceFloor, err)
	}

	return decimal.NewNullDecimal(d), nil
}
