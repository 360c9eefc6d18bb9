package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrEmptyCommand     = errors.New("invalid engine: command is empty")
	ErrEmptyFormat      = errors.New("invalid engine: format is empty")
	ErrInvalidTimeout   = errors.New("invalid engine timeout: must be non-negative")
	ErrInvalidRetries   = errors.New("invalid engine retries: must be non-negative")
	ErrInvalidWorkers   = errors.New("invalid workers: must be non-negative")
	ErrInvalidAssetsDir = errors.New("invalid assets dir: must be a relative path")
)
