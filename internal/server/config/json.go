package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophplaces/internal/flagx"
	"github.com/dmitrijs2005/gophplaces/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "1h"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3PublicBaseURL             string         `json:"s3_public_base_url"`
	GeocodingBaseURL            string         `json:"geocoding_base_url"`
	GeocodingAPIKey             string         `json:"geocoding_api_key"`
	ExternalCallTimeout         timex.Duration `json:"external_call_timeout"`
	MaxImageSize                int64          `json:"max_image_size"`
	LogFile                     string         `json:"log_file"`
}

// parseJson overlays values from the file named by -c / -config onto
// config. Keys absent from the file leave the current value untouched.
// An unreadable or malformed file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFilePath(args)
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
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.GeocodingBaseURL, c.GeocodingBaseURL)
	setString(&config.GeocodingAPIKey, c.GeocodingAPIKey)
	if c.ExternalCallTimeout.Duration > 0 {
		config.ExternalCallTimeout = c.ExternalCallTimeout.Duration
	}
	if c.MaxImageSize > 0 {
		config.MaxImageSize = c.MaxImageSize
	}
	setString(&config.LogFile, c.LogFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
