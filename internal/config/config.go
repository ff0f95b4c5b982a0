package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config holds the configuration for the accountd server and its dependencies.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// BasePath is the prefix under which all API routes are mounted (e.g. "/api").
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	// ServerURL is the public origin of the server. If set, local media URLs are absolute.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Gzip enables gzip compression of responses.
	Gzip bool `yaml:"gzip" mapstructure:"gzip"`
	// ShutdownTimeout is how long in-flight requests may take to finish on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Storage holds the configuration of the backend for uploaded profile pictures.
	Storage *StorageConfig `yaml:"storage" mapstructure:"storage"`
	// Upload holds limits and processing options for uploaded profile pictures.
	Upload *UploadConfig `yaml:"upload" mapstructure:"upload"`
	// Password holds the password hashing configuration.
	Password *PasswordConfig `yaml:"password" mapstructure:"password"`
	// Gravatar holds the configuration for Gravatar fallback avatars.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Driver selects the database engine ("sqlite" or "postgres").
	Driver DatabaseDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// StorageConfig holds the configuration of the file storage backend.
type StorageConfig struct {
	// Type is the storage backend to use ("local" or "s3").
	Type StorageType `yaml:"type" mapstructure:"type"`
	// Local holds the configuration for the local filesystem backend.
	Local *LocalStorageConfig `yaml:"local" mapstructure:"local"`
	// S3 holds the configuration for the S3 backend.
	S3 *S3StorageConfig `yaml:"s3" mapstructure:"s3"`
}

// LocalStorageConfig holds the configuration for the local filesystem backend.
type LocalStorageConfig struct {
	// Dir is the directory uploaded files are written to.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// URLPrefix is the URL path under which Dir is served.
	URLPrefix string `yaml:"url_prefix" mapstructure:"url_prefix"`
}

// S3StorageConfig holds the configuration for the S3 backend.
type S3StorageConfig struct {
	// Bucket is the name of the bucket.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	// Region is the AWS region of the bucket.
	Region string `yaml:"region" mapstructure:"region"`
	// Endpoint overrides the S3 endpoint (e.g. for MinIO).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// PublicURL is the base URL objects are publicly reachable at.
	// Defaults to the virtual-hosted style bucket URL.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool `yaml:"use_path_style" mapstructure:"use_path_style"`
}

// UploadConfig holds limits and processing options for uploaded profile pictures.
type UploadConfig struct {
	// MaxSize is the maximum accepted file size, in human readable form (e.g. "5MB").
	MaxSize string `yaml:"max_size" mapstructure:"max_size"`
	// MaxWidth is the maximum width in pixels of a stored picture.
	MaxWidth int `yaml:"max_width" mapstructure:"max_width"`
	// MaxHeight is the maximum height in pixels of a stored picture.
	MaxHeight int `yaml:"max_height" mapstructure:"max_height"`
	// Quality is the JPEG quality (1-100) used when a picture is re-encoded.
	Quality int `yaml:"quality" mapstructure:"quality"`

	maxBytes int64
}

// MaxBytes returns the parsed MaxSize.
func (u *UploadConfig) MaxBytes() int64 {
	return u.maxBytes
}

// PasswordConfig holds the password hashing configuration.
type PasswordConfig struct {
	// BcryptCost is the bcrypt work factor.
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A missing config file is not an error, defaults and environment variables are used instead.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("ACCOUNTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.accountd")
		v.AddConfigPath("/etc/accountd")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("no config file found, using defaults and environment")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:8000")
	v.SetDefault("base_path", "/api")
	v.SetDefault("server_url", "")
	v.SetDefault("gzip", true)
	v.SetDefault("shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.driver", DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/accountd.db")
	v.SetDefault("database.dsn", "")

	// Storage defaults
	v.SetDefault("storage.type", StorageTypeLocal)
	v.SetDefault("storage.local.dir", "./data/media")
	v.SetDefault("storage.local.url_prefix", "/media")

	// Upload defaults
	v.SetDefault("upload.max_size", "5MB")
	v.SetDefault("upload.max_width", 512)
	v.SetDefault("upload.max_height", 512)
	v.SetDefault("upload.quality", 85)

	// Password defaults
	v.SetDefault("password.bcrypt_cost", bcrypt.DefaultCost)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "mp")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// The s3 section has no defaults on purpose, so its env vars are bound manually.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("storage.s3.bucket", "ACCOUNTD_STORAGE_S3_BUCKET")
	v.MustBindEnv("storage.s3.region", "ACCOUNTD_STORAGE_S3_REGION")
	v.MustBindEnv("storage.s3.endpoint", "ACCOUNTD_STORAGE_S3_ENDPOINT")
	v.MustBindEnv("storage.s3.public_url", "ACCOUNTD_STORAGE_S3_PUBLIC_URL")
	v.MustBindEnv("storage.s3.use_path_style", "ACCOUNTD_STORAGE_S3_USE_PATH_STYLE")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing accountd config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using sqlite")
		}
	case DatabaseDriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required when using postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Storage == nil {
		return fmt.Errorf("missing storage config")
	}
	switch c.Storage.Type {
	case StorageTypeLocal:
		if c.Storage.Local == nil || c.Storage.Local.Dir == "" {
			return fmt.Errorf("local storage dir is required when using local storage")
		}
		if c.Storage.Local.URLPrefix == "" {
			return fmt.Errorf("local storage url prefix is required when using local storage")
		}
	case StorageTypeS3:
		if c.Storage.S3 == nil {
			return fmt.Errorf("missing s3 config")
		}
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required when using s3 storage")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.Upload == nil {
		return fmt.Errorf("missing upload config")
	}
	maxBytes, err := humanize.ParseBytes(c.Upload.MaxSize)
	if err != nil {
		return fmt.Errorf("invalid upload max size %q: %w", c.Upload.MaxSize, err)
	}
	if maxBytes == 0 {
		return fmt.Errorf("upload max size must be greater than 0")
	}
	c.Upload.maxBytes = int64(maxBytes) //nolint:gosec
	if c.Upload.MaxWidth <= 0 || c.Upload.MaxHeight <= 0 {
		return fmt.Errorf("upload max width and height must be greater than 0")
	}
	if c.Upload.Quality < 1 || c.Upload.Quality > 100 {
		return fmt.Errorf("upload quality must be between 1 and 100")
	}

	if c.Password == nil {
		return fmt.Errorf("missing password config")
	}
	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)
	c.BasePath = pathSanitize(c.BasePath)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Storage != nil {
		if c.Storage.Local != nil {
			c.Storage.Local.URLPrefix = pathSanitize(c.Storage.Local.URLPrefix)
		}
		if c.Storage.S3 != nil {
			c.Storage.S3.Endpoint = urlSanitize(c.Storage.S3.Endpoint)
			c.Storage.S3.PublicURL = urlSanitize(c.Storage.S3.PublicURL)
		}
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// pathSanitize returns p with a leading slash and without a trailing one.
// An empty or root path becomes "".
func pathSanitize(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
