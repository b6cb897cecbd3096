// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// After the file is read, EASYBOOK_* variables override individual fields
// (EASYBOOK_CHAT_URL, EASYBOOK_STORAGE_DRIVER, EASYBOOK_STORAGE_PATH,
// EASYBOOK_LOG_LEVEL, EASYBOOK_METRICS_PORT).
package config
