package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// IdentityReplacement represents a find/replace operation applied to
// the hoisted model identity.
type IdentityReplacement struct {
	Find    string `yaml:"find"`
	Replace string `yaml:"replace"`
}

// IdentityOverrides represents model identity modification configuration
type IdentityOverrides struct {
	RemovePatterns []string              `yaml:"removePatterns"`
	Replacements   []IdentityReplacement `yaml:"replacements"`
	Prepend        string                `yaml:"prepend"`
	Append         string                `yaml:"append"`
}

// IsEmpty reports whether no override operations are configured.
func (o IdentityOverrides) IsEmpty() bool {
	return len(o.RemovePatterns) == 0 && len(o.Replacements) == 0 &&
		o.Prepend == "" && o.Append == ""
}

// identityOverridesYAML represents the structure of identity_overrides.yaml
type identityOverridesYAML struct {
	IdentityOverrides IdentityOverrides `yaml:"identityOverrides"`
}

// LoadIdentityOverrides loads identity overrides from identity_overrides.yaml.
// Returns an empty struct if the file doesn't exist (no error).
func LoadIdentityOverrides() (IdentityOverrides, error) {
	file, err := os.Open("identity_overrides.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return IdentityOverrides{}, nil
		}
		return IdentityOverrides{}, fmt.Errorf("failed to open identity_overrides.yaml: %v", err)
	}
	defer file.Close()

	var yamlData identityOverridesYAML
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&yamlData); err != nil {
		return IdentityOverrides{}, fmt.Errorf("failed to parse identity_overrides.yaml: %v", err)
	}

	overrides := yamlData.IdentityOverrides
	log.Printf("📝 Loaded identity overrides from identity_overrides.yaml:")
	log.Printf("   - Remove patterns: %d", len(overrides.RemovePatterns))
	log.Printf("   - Replacements: %d", len(overrides.Replacements))
	log.Printf("   - Prepend: %t", overrides.Prepend != "")
	log.Printf("   - Append: %t", overrides.Append != "")

	return overrides, nil
}

// ApplyIdentityOverrides applies model identity modifications.
// Operations are applied in order: removePatterns -> replacements -> prepend/append
func ApplyIdentityOverrides(identity string, overrides IdentityOverrides) string {
	result := identity

	// Apply remove patterns (regex-based removal)
	for _, pattern := range overrides.RemovePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Printf("⚠️  Warning: Invalid regex pattern '%s': %v", pattern, err)
			continue
		}
		if re.MatchString(result) {
			result = re.ReplaceAllString(result, "")
			log.Printf("🔍 removePattern applied for pattern '%s'", pattern)
		}
	}

	// Apply replacements
	for _, replacement := range overrides.Replacements {
		if strings.Contains(result, replacement.Find) {
			occurrences := strings.Count(result, replacement.Find)
			result = strings.ReplaceAll(result, replacement.Find, replacement.Replace)
			log.Printf("🔄 replacement applied: '%s' → '%s' (%d occurrences)",
				replacement.Find, replacement.Replace, occurrences)
		}
	}

	// Apply prepend and append
	if overrides.Prepend != "" {
		result = overrides.Prepend + result
	}
	if overrides.Append != "" {
		result = result + overrides.Append
	}

	return result
}
