package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/flagx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration so both "15m" strings and
// integer nanoseconds parse. Zero values are skipped during the overlay so a
// partial file only overrides what it sets.
type JsonConfig struct {
	EndpointAddrHTTP                  string         `json:"endpoint_addr_http"`
	DatabaseDSN                       string         `json:"database_dsn"`
	JWTSecret                         string         `json:"jwt_secret"`
	FieldCipherSecret                 string         `json:"field_cipher_secret"`
	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration      timex.Duration `json:"refresh_token_validity_duration"`
	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration"`
	RecoveryCodeValidityDuration      timex.Duration `json:"recovery_code_validity_duration"`
	FederatedIssuer                   string         `json:"federated_issuer"`
	FederatedAudience                 string         `json:"federated_audience"`
	FederatedJWKSURL                  string         `json:"federated_jwks_url"`
	FederatedVerifyTimeout            timex.Duration `json:"federated_verify_timeout"`
	S3RootUser                        string         `json:"s3_root_user"`
	S3RootPassword                    string         `json:"s3_root_password"`
	S3Bucket                          string         `json:"s3_bucket"`
	S3Region                          string         `json:"s3_region"`
	S3BaseEndpoint                    string         `json:"s3_base_endpoint"`
	SweepInterval                     timex.Duration `json:"sweep_interval"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no file is named, nothing
// is loaded. An unreadable or invalid file panics: a half-applied config
// is worse than no startup.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.JWTSecret, c.JWTSecret)
	overlayString(&config.FieldCipherSecret, c.FieldCipherSecret)
	overlayDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	overlayDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	overlayDuration(&config.VerificationTokenValidityDuration, c.VerificationTokenValidityDuration)
	overlayDuration(&config.RecoveryCodeValidityDuration, c.RecoveryCodeValidityDuration)
	overlayString(&config.FederatedIssuer, c.FederatedIssuer)
	overlayString(&config.FederatedAudience, c.FederatedAudience)
	overlayString(&config.FederatedJWKSURL, c.FederatedJWKSURL)
	overlayDuration(&config.FederatedVerifyTimeout, c.FederatedVerifyTimeout)
	overlayString(&config.S3RootUser, c.S3RootUser)
	overlayString(&config.S3RootPassword, c.S3RootPassword)
	overlayString(&config.S3Bucket, c.S3Bucket)
	overlayString(&config.S3Region, c.S3Region)
	overlayString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlayDuration(&config.SweepInterval, c.SweepInterval)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
