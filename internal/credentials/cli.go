package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CLIHandler handles the apikey subcommands
type CLIHandler struct {
	manager *Manager
	stdin   io.Reader
	stdout  io.Writer
}

// NewCLIHandler creates a new CLI handler for API key commands
func NewCLIHandler(manager *Manager, stdin io.Reader, stdout io.Writer) *CLIHandler {
	return &CLIHandler{
		manager: manager,
		stdin:   stdin,
		stdout:  stdout,
	}
}

// Set stores key, or a key read from stdin when key is empty
func (h *CLIHandler) Set(key string) error {
	if key == "" {
		var err error
		key, err = readKey(h.stdin, h.stdout)
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
	}

	if err := h.manager.Set(context.Background(), key); err != nil {
		if errors.Is(err, ErrKeyringNotAvailable) {
			return keyringNotAvailableError()
		}
		return fmt.Errorf("failed to store API key: %w", err)
	}

	_, _ = fmt.Fprintln(h.stdout, "API key stored in system keyring")
	return nil
}

// keyringNotAvailableError explains the environment variable fallback
func keyringNotAvailableError() error {
	return fmt.Errorf(`%w.

Alternative: export the key instead:
  export %s="your-api-key"

or set remote.api_key in the config file`, ErrKeyringNotAvailable, EnvAPIKey)
}

// Get shows where the API key comes from, never the full key
func (h *CLIHandler) Get(configValue string, jsonOutput bool) error {
	info := h.manager.Resolve(context.Background(), configValue)

	if jsonOutput {
		jsonBytes, err := info.JSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(h.stdout, string(jsonBytes))
		return nil
	}

	if !info.Found {
		_, _ = fmt.Fprintln(h.stdout, "No API key found")
		_, _ = fmt.Fprintln(h.stdout, "Searched:")
		_, _ = fmt.Fprintln(h.stdout, "  - System keyring: Not found")
		_, _ = fmt.Fprintf(h.stdout, "  - %s: Not set\n", EnvAPIKey)
		_, _ = fmt.Fprintln(h.stdout, "  - remote.api_key: Not set")
		_, _ = fmt.Fprintln(h.stdout, "\nSuggestion: Run 'tors apikey set'")
		return nil
	}

	_, _ = fmt.Fprintf(h.stdout, "Source: %s\n", info.Source)
	_, _ = fmt.Fprintf(h.stdout, "API key: %s\n", info.Masked())
	return nil
}

// Delete removes the API key from the keyring
func (h *CLIHandler) Delete() error {
	if err := h.manager.Delete(context.Background()); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	_, _ = fmt.Fprintln(h.stdout, "API key removed from system keyring")
	return nil
}

func readKey(reader io.Reader, writer io.Writer) (string, error) {
	_, _ = fmt.Fprint(writer, "Enter API key: ")
	scanner := bufio.NewScanner(reader)
	if scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key == "" {
			return "", errors.New("empty API key")
		}
		return key, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no input received")
}
