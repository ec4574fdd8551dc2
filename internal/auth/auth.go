package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "ipgu"

// Services with stored credentials.
var envVars = map[string]string{
	"gemini":   "GEMINI_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
}

// Known reports whether the service name is one we manage keys for.
func Known(service string) bool {
	_, ok := envVars[service]
	return ok
}

// Services lists the managed service names.
func Services() []string {
	return []string{"gemini", "openai", "deepseek"}
}

func account(service string) string {
	return service + "-api-key"
}

// GetKey retrieves the API key for a service: keychain first, then the
// service's environment variable.
func GetKey(service string) (string, string) {
	key, err := keyring.Get(serviceName, account(service))
	if err == nil && key != "" {
		return strings.TrimSpace(key), "Keychain"
	}
	if env := envVars[service]; env != "" {
		if key := os.Getenv(env); key != "" {
			return strings.TrimSpace(key), "Environment Variable"
		}
	}
	return "", ""
}

// SaveKey saves the key for a service to the OS keychain.
func SaveKey(service, key string) error {
	return keyring.Set(serviceName, account(service), strings.TrimSpace(key))
}

// DeleteKey removes the key for a service from the OS keychain.
func DeleteKey(service string) error {
	return keyring.Delete(serviceName, account(service))
}

// HasStoredKey reports whether a key exists for the service in the keychain.
func HasStoredKey(service string) bool {
	key, err := keyring.Get(serviceName, account(service))
	return err == nil && key != ""
}

// PromptForAPIKey securely prompts the user for an API key.
func PromptForAPIKey(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("cannot prompt for API key: stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(key)), nil
}
