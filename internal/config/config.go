package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Log      LogConfig
}

type AppConfig struct {
	Name string
	Env  string
}

// StorageConfig names the backing stores. Driver selects the order store
// implementation; the flat-file paths are always used for the payment
// ledger, the identifier map and the legacy merge source.
type StorageConfig struct {
	Driver           string // "file" or "postgres"
	OrdersPath       string
	LegacySourcePath string
	PaymentsPath     string
	ProductMapPath   string
	ExportPath       string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "pub-ledger")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORAGE_DRIVER", "file")
	viper.SetDefault("ORDERS_PATH", "OrderDB.json")
	viper.SetDefault("LEGACY_SOURCE_PATH", "Database/OrderDB.json")
	viper.SetDefault("PAYMENTS_PATH", "Database/PaymentDB.json")
	viper.SetDefault("PRODUCT_MAP_PATH", "product_id_mapping.json")
	viper.SetDefault("EXPORT_PATH", "history_report.xlsx")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "publedger")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Europe/Stockholm")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stderr")

	return &Config{
		App: AppConfig{
			Name: viper.GetString("APP_NAME"),
			Env:  viper.GetString("APP_ENV"),
		},
		Storage: StorageConfig{
			Driver:           viper.GetString("STORAGE_DRIVER"),
			OrdersPath:       viper.GetString("ORDERS_PATH"),
			LegacySourcePath: viper.GetString("LEGACY_SOURCE_PATH"),
			PaymentsPath:     viper.GetString("PAYMENTS_PATH"),
			ProductMapPath:   viper.GetString("PRODUCT_MAP_PATH"),
			ExportPath:       viper.GetString("EXPORT_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
