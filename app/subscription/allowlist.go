package subscription

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Allowlist restricts registration to a set of email domains, either by
// exact match or by domain suffix.
type Allowlist struct {
	Exact    []string `yaml:"exact"`
	Suffixes []string `yaml:"suffixes"`
}

// defaultAllowlist is used when no allowlist file exists: consumer gmail
// plus common academic domain suffixes.
func defaultAllowlist() *Allowlist {
	return &Allowlist{
		Exact:    []string{"gmail.com"},
		Suffixes: []string{".edu", ".edu.in", ".ac.in", ".ac.uk", ".edu.au", ".edu.sg"},
	}
}

// LoadAllowlist reads the allowlist YAML file. A missing file is not an
// error; the built-in defaults apply.
func LoadAllowlist(path string) (*Allowlist, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("Allowlist file not found, using defaults", "path", path)
		return defaultAllowlist(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read allowlist file: %w", err)
	}

	var list Allowlist
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse allowlist YAML: %w", err)
	}

	if err := list.validate(); err != nil {
		return nil, fmt.Errorf("invalid allowlist %s: %w", path, err)
	}

	list.normalize()
	slog.Debug("Allowlist loaded", "path", path, "exact", len(list.Exact), "suffixes", len(list.Suffixes))

	return &list, nil
}

func (a *Allowlist) validate() error {
	if len(a.Exact) == 0 && len(a.Suffixes) == 0 {
		return fmt.Errorf("allowlist must contain at least one exact domain or suffix")
	}
	for i, suffix := range a.Suffixes {
		if !strings.HasPrefix(suffix, ".") {
			return fmt.Errorf("suffix at index %d must start with '.': %s", i, suffix)
		}
	}
	return nil
}

func (a *Allowlist) normalize() {
	for i, domain := range a.Exact {
		a.Exact[i] = strings.ToLower(strings.TrimSpace(domain))
	}
	for i, suffix := range a.Suffixes {
		a.Suffixes[i] = strings.ToLower(strings.TrimSpace(suffix))
	}
}

// Allowed reports whether the email's domain is on the allowlist.
func (a *Allowlist) Allowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := strings.ToLower(email[at+1:])

	for _, exact := range a.Exact {
		if domain == exact {
			return true
		}
	}
	for _, suffix := range a.Suffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}

	return false
}
