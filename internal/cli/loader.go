package cli

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/roach88/iql/internal/signature"
)

// errNoSignatures is returned when neither --signatures nor the
// signatures config key names a file.
var errNoSignatures = errors.WithHint(
	errors.New("no signature file"),
	"pass --signatures or set signatures in iql.yaml (IQL_SIGNATURES)")

// signaturePath prefers the flag over the configured default.
func signaturePath(flag string, cfg *Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg != nil && cfg.Signatures != "" {
		return cfg.Signatures, nil
	}
	return "", errNoSignatures
}

// loadRegistry compiles the declaration file at path. The returned code
// tells not-found apart from malformed declarations.
func loadRegistry(path string) (*signature.Registry, string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrCodeNotFound, errors.Wrapf(err, "signature file %s", path)
	}
	reg, err := signature.LoadFile(path)
	if err != nil {
		return nil, ErrCodeLoadFailed, err
	}
	return reg, "", nil
}
