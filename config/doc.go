// Package config provides configuration loading and validation for
// streamkit applications.
//
// It uses Viper to load configuration from YAML files and environment
// variables, with a .env file (godotenv) populating the environment before
// the final bind. Environment variables override file values using
// underscore-separated paths (e.g., SERVER_HTTP_PORT).
//
// # Usage
//
//	var cfg RelayConfig
//	err := config.LoadConfig("relay", &cfg)
package config
