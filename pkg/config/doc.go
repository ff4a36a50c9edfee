// Package config provides configuration management for the MotoNomad gateway
// client and its command line tool.
//
// This package handles loading and validating configuration from YAML files
// with environment variable overrides. It provides a type-safe configuration
// system with sensible defaults.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("motonomad.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("motonomad.yaml")
//
//  3. From an optional file, falling back to defaults plus environment:
//     cfg, err := config.Load("motonomad.yaml", true)
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MOTONOMAD_SECTION_FIELD:
//
//   - MOTONOMAD_GATEWAY_API_KEY overrides gateway.api_key
//   - MOTONOMAD_GATEWAY_MODE overrides gateway.mode
//   - MOTONOMAD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Validation
//
// Validation collects every problem before failing:
//
//	configuration validation failed with 2 errors:
//	  - gateway.mode: invalid mode "relay" (must be one of: direct, proxy)
//	  - planner.temperature: temperature must be between 0 and 2
//
// A missing API key is deliberately not an error; the client reports it per
// call. Warnings lists such settings for the "config validate" command.
//
// # Reloading
//
// Watcher reloads the file when it changes, so a long-running chat session
// can pick up a corrected API key without restarting.
//
// # Example Configuration
//
//	gateway:
//	  mode: direct
//	  api_key: "your-api-key-here"
//	  timeout: 60s
//	  max_retries: 3
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: console
//
//	usage:
//	  backend: sqlite
//	  sqlite_path: data/usage.db
package config
