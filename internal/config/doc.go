// Package config loads the service configuration.
//
// Values come from environment variables, optionally seeded from a .env file
// (godotenv) and an optional config file (viper). Environment variables take
// precedence. Keys keep their environment spelling, e.g. BLUEJEANS_CLIENT_ID,
// ENABLED_BACKENDS and STORE_TYPE.
package config
