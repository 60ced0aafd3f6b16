package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authrelay/internal/flagx"
	"github.com/dmitrijs2005/authrelay/internal/timex"
)

// JsonConfig is the JSON file representation of Config. Durations accept
// strings such as "24h" or integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	StoreBackend          string         `json:"store_backend"`
	DatabaseDSN           string         `json:"database_dsn"`
	SQLitePath            string         `json:"sqlite_path"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`
	GenerationAPIKey      string         `json:"generation_api_key"`
	GenerationBaseURL     string         `json:"generation_base_url"`
	GenerationModel       string         `json:"generation_model"`
	GenerationTimeout     timex.Duration `json:"generation_timeout"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3ObjectKey           string         `json:"s3_object_key"`
	LogBackend            string         `json:"log_backend"`
}

// parseJson overlays config with the JSON file named by -c / -config.
// Without either flag nothing is loaded. An unreadable or invalid file
// panics, the same as a bad flag.
func parseJson(config *Config, args []string) {
	path, err := flagx.ConfigFilePath(args)
	if err != nil {
		panic(err)
	}
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SQLitePath, c.SQLitePath)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.GenerationAPIKey, c.GenerationAPIKey)
	setString(&config.GenerationBaseURL, c.GenerationBaseURL)
	setString(&config.GenerationModel, c.GenerationModel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3ObjectKey, c.S3ObjectKey)
	setString(&config.LogBackend, c.LogBackend)

	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.GenerationTimeout.Duration != 0 {
		config.GenerationTimeout = c.GenerationTimeout.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
