// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// which is how secrets (database password, admin secret, Redis password) are injected.
// See configs/dashboard.example.yaml for the full schema.
package config
