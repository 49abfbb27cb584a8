package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding descriptor keys.
const EnvPrefix = "RDFPUB_SITE_"

// keyDelim separates nested koanf keys. A dot cannot be used because
// FileTypes keys may start with one.
const keyDelim = "/"

// envKeys maps upper-cased variable suffixes to descriptor keys.
var envKeys = map[string]string{
	"BASEURI":              "BaseURI",
	"DEFAULTLANGUAGE":      "DefaultLanguage",
	"CLEANOUTPUTDIRECTORY": "CleanOutputDirectory",
	"SPARQLENDPOINT":       "SPARQLEndpoint",
}

// Load reads the descriptor in inputDir, applies environment overrides and
// validates the result. outputDir is recorded as given.
func Load(inputDir, outputDir string) (*Settings, error) {
	path, err := checkInput(inputDir)
	if err != nil {
		return nil, err
	}

	d, err := LoadDescriptor(path)
	if err != nil {
		return nil, err
	}

	return New(inputDir, outputDir, *d)
}

// LoadDescriptor reads a descriptor file without validating it.
func LoadDescriptor(path string) (*Descriptor, error) {
	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, keyDelim, func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var d Descriptor
	if err := k.Unmarshal("", &d); err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}

	d.BaseURI = expandEnvVars(d.BaseURI)
	d.DefaultLanguage = expandEnvVars(d.DefaultLanguage)
	d.SPARQLEndpoint = expandEnvVars(d.SPARQLEndpoint)
	for prefix, ns := range d.Prefixes {
		d.Prefixes[prefix] = expandEnvVars(ns)
	}

	return &d, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unknown variables are left untouched.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
