// Package config defines the application configuration structure and the
// logic to load it from a config file and environment variables.
package config
