// Package config loads service configuration from AUDITTRAIL_* environment
// variables with sensible defaults and validates it at startup.
package config
