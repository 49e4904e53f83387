package zn

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// CredentialEnvVar is consulted when no key file is given.
const CredentialEnvVar = "ZN_API_KEY"

// ErrNoCredential is returned when neither a key file nor the environment
// provides an API token.
var ErrNoCredential = errors.New("no API credential: pass --api-key-file or set " + CredentialEnvVar)

// ResolveCredential resolves the bearer token once at startup. Precedence:
// file content (when keyFile is non-empty) over the environment variable.
// The resolved value is held in memory for the process duration and never
// read again from the environment.
func ResolveCredential(keyFile string) (string, error) {
	if keyFile != "" {
		raw, err := os.ReadFile(keyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read API key file: %w", err)
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			return "", fmt.Errorf("API key file %s is empty", keyFile)
		}
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv(CredentialEnvVar)); token != "" {
		return token, nil
	}
	return "", ErrNoCredential
}
