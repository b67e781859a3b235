package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var serviceURLPattern = regexp.MustCompile(`http://([a-zA-Z0-9_-]+):\d+`)

// Validator checks the data directory for structural problems before the
// loader ever sees it. Errors are blocking, warnings are advisory.
type Validator struct {
	Errors   []string
	Warnings []string

	services     map[string]struct{}
	teams        map[string]struct{}
	teamServices map[string][]string
}

// NewValidator creates an empty validator
func NewValidator() *Validator {
	return &Validator{
		services:     make(map[string]struct{}),
		teams:        make(map[string]struct{}),
		teamServices: make(map[string][]string),
	}
}

// ValidateAll checks every data file and returns true when no errors were
// found. Warnings do not fail validation.
func (v *Validator) ValidateAll(dataDir string) bool {
	composePath := filepath.Join(dataDir, composeFile)
	teamsPath := filepath.Join(dataDir, teamsFile)
	k8sPath := filepath.Join(dataDir, kubernetesFile)

	if _, err := os.Stat(composePath); err == nil {
		v.validateDockerCompose(composePath)
	} else {
		v.Errors = append(v.Errors, fmt.Sprintf("Missing required file: %s", composePath))
	}

	if _, err := os.Stat(teamsPath); err == nil {
		v.validateTeams(teamsPath)
	} else {
		v.Errors = append(v.Errors, fmt.Sprintf("Missing required file: %s", teamsPath))
	}

	if _, err := os.Stat(k8sPath); err == nil {
		v.validateKubernetes(k8sPath)
	}

	v.crossValidate()

	return len(v.Errors) == 0
}

type validateComposeFile struct {
	Services map[string]*validateComposeService `yaml:"services"`
}

type validateComposeService struct {
	Image       string      `yaml:"image"`
	Build       interface{} `yaml:"build"`
	Labels      interface{} `yaml:"labels"`
	DependsOn   interface{} `yaml:"depends_on"`
	Environment interface{} `yaml:"environment"`
}

func (v *Validator) validateDockerCompose(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("Cannot read %s: %v", path, err))
		return
	}

	var file validateComposeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("Invalid YAML in %s: %v", path, err))
		return
	}

	if len(file.Services) == 0 {
		v.Errors = append(v.Errors, "No services defined in docker-compose.yml")
		return
	}

	names := make([]string, 0, len(file.Services))
	for name := range file.Services {
		names = append(names, name)
		v.services[name] = struct{}{}
	}
	sort.Strings(names)

	for _, name := range names {
		svc := file.Services[name]
		if svc == nil {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Service '%s' has no configuration", name))
			continue
		}

		if svc.Image == "" && svc.Build == nil {
			v.Errors = append(v.Errors, fmt.Sprintf("Service '%s' has no image or build specified", name))
		}

		if team := labelValue(svc.Labels, "team"); team != "" {
			v.teamServices[team] = append(v.teamServices[team], name)
		}

		for _, dep := range stringKeysOrList(svc.DependsOn) {
			if _, ok := file.Services[dep]; !ok {
				v.Errors = append(v.Errors, fmt.Sprintf("Service '%s' depends on unknown service '%s'", name, dep))
			}
		}

		env := environmentPairs(svc.Environment)
		keys := make([]string, 0, len(env))
		for key := range env {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			v.validateServiceURL(name, key, env[key], file.Services)
		}
	}
}

func (v *Validator) validateServiceURL(service, key, value string, services map[string]*validateComposeService) {
	for _, match := range serviceURLPattern.FindAllStringSubmatch(value, -1) {
		if _, ok := services[match[1]]; !ok {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("Service '%s' references unknown service '%s' in %s", service, match[1], key))
		}
	}
}

type validateTeamsFile struct {
	Teams []struct {
		Name         string   `yaml:"name"`
		Lead         string   `yaml:"lead"`
		SlackChannel string   `yaml:"slack_channel"`
		Owns         []string `yaml:"owns"`
	} `yaml:"teams"`
}

func (v *Validator) validateTeams(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("Cannot read %s: %v", path, err))
		return
	}

	var file validateTeamsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("Invalid YAML in %s: %v", path, err))
		return
	}

	if len(file.Teams) == 0 {
		v.Errors = append(v.Errors, "No teams defined in teams.yaml")
		return
	}

	for _, team := range file.Teams {
		if team.Name == "" {
			v.Errors = append(v.Errors, "Team missing 'name' field")
			continue
		}

		v.teams[team.Name] = struct{}{}

		if team.Lead == "" {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Team '%s' has no lead defined", team.Name))
		}
		if team.SlackChannel == "" {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Team '%s' has no slack_channel defined", team.Name))
		}
		if len(team.Owns) == 0 {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Team '%s' owns no services", team.Name))
		}
	}
}

type validateK8sDocument struct {
	Kind     string `yaml:"kind"`
	Metadata struct {
		Name string `yaml:"name"`
	} `yaml:"metadata"`
	Spec struct {
		Replicas *int `yaml:"replicas"`
		Template struct {
			Spec struct {
				Containers []interface{} `yaml:"containers"`
			} `yaml:"spec"`
		} `yaml:"template"`
	} `yaml:"spec"`
}

func (v *Validator) validateKubernetes(path string) {
	f, err := os.Open(path)
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("Cannot read %s: %v", path, err))
		return
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	for {
		var doc validateK8sDocument
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			v.Errors = append(v.Errors, fmt.Sprintf("Invalid YAML in %s: %v", path, err))
			return
		}

		switch doc.Kind {
		case "Deployment":
			if doc.Metadata.Name == "" {
				v.Errors = append(v.Errors, "Deployment missing metadata.name")
				continue
			}
			if doc.Spec.Replicas == nil {
				v.Warnings = append(v.Warnings, fmt.Sprintf("Deployment '%s' has no replicas specified", doc.Metadata.Name))
			}
			if len(doc.Spec.Template.Spec.Containers) == 0 {
				v.Errors = append(v.Errors, fmt.Sprintf("Deployment '%s' has no containers defined", doc.Metadata.Name))
			}
		case "Service":
			if doc.Metadata.Name == "" {
				v.Errors = append(v.Errors, "Service missing metadata.name")
			}
		}
	}
}

func (v *Validator) crossValidate() {
	teams := make([]string, 0, len(v.teamServices))
	for team := range v.teamServices {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	for _, team := range teams {
		if _, ok := v.teams[team]; !ok {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("Team '%s' referenced in docker-compose but not defined in teams.yaml", team))
		}
	}
}

// Report renders a human-readable validation summary
func (v *Validator) Report() string {
	var b strings.Builder
	divider := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "\n%s\n", divider)
	b.WriteString("CONFIG VALIDATION REPORT\n")
	fmt.Fprintf(&b, "%s\n", divider)

	fmt.Fprintf(&b, "\nServices found: %d\n", len(v.services))
	fmt.Fprintf(&b, "Teams found: %d\n", len(v.teams))

	if len(v.Errors) > 0 {
		fmt.Fprintf(&b, "\nERRORS (%d):\n", len(v.Errors))
		for _, e := range v.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}

	if len(v.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWARNINGS (%d):\n", len(v.Warnings))
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	if len(v.Errors) == 0 && len(v.Warnings) == 0 {
		b.WriteString("\nAll configurations are valid.\n")
	} else if len(v.Errors) == 0 {
		b.WriteString("\nNo critical errors found.\n")
	}

	fmt.Fprintf(&b, "\n%s\n", divider)
	return b.String()
}

func labelValue(labels interface{}, key string) string {
	switch typed := labels.(type) {
	case map[string]interface{}:
		if value, ok := typed[key].(string); ok {
			return value
		}
	case []interface{}:
		for _, item := range typed {
			entry, ok := item.(string)
			if !ok {
				continue
			}
			if k, value, found := strings.Cut(entry, "="); found && k == key {
				return value
			}
		}
	}
	return ""
}

func stringKeysOrList(value interface{}) []string {
	switch typed := value.(type) {
	case []interface{}:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]interface{}:
		out := make([]string, 0, len(typed))
		for key := range typed {
			out = append(out, key)
		}
		sort.Strings(out)
		return out
	}
	return nil
}

func environmentPairs(value interface{}) map[string]string {
	out := make(map[string]string)
	switch typed := value.(type) {
	case []interface{}:
		for _, item := range typed {
			entry, ok := item.(string)
			if !ok {
				continue
			}
			if key, val, found := strings.Cut(entry, "="); found {
				out[key] = val
			}
		}
	case map[string]interface{}:
		for key, val := range typed {
			if val == nil {
				continue
			}
			out[key] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
