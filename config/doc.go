// Package config loads the application configuration from YAML, applies
// defaults, and validates it with struct tags. The Safe wrapper gives
// runtime-reconfigurable components copy-on-read access.
package config
