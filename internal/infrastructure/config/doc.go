// Package config handles loading and validating NeuroAIR Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with NEUROAIR_* environment variables
//   - Validation of required fields
//   - Default value handling, including the built-in scent profiles,
//     command phrases and scenes
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The JWT secret signs platform link tokens and must be set before use
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog, err := cfg.Catalog()
package config
