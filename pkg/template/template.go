// Package template generates starter environment definitions for the
// provenv config file.
package template

import (
	"fmt"
	"strings"
)

// TemplateType represents the type of environment template to generate
type TemplateType string

const (
	TypeDataScience TemplateType = "datascience"
	TypeDS          TemplateType = "ds"
	TypeWeb         TemplateType = "web"
	TypeWebService  TemplateType = "webservice"
	TypeML          TemplateType = "ml"
	TypeMachine     TemplateType = "machine-learning"
	TypeScraping    TemplateType = "scraping"
	TypeCrawler     TemplateType = "crawler"
	TypeTesting     TemplateType = "testing"
	TypeQA          TemplateType = "qa"
	TypeSimple      TemplateType = "simple"
	TypeBasic       TemplateType = "basic"
)

// EnvironmentTemplate represents one environment definition
type EnvironmentTemplate struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Packages    []string `json:"packages"`
}

// Generator provides template generation functionality
type Generator struct{}

// NewGenerator creates a new template generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate creates an environment template based on the specified type and name
func (g *Generator) Generate(templateType TemplateType, name string) (*EnvironmentTemplate, error) {
	switch templateType {
	case TypeDataScience, TypeDS:
		return g.generateDataScience(name), nil
	case TypeWeb, TypeWebService:
		return g.generateWebService(name), nil
	case TypeML, TypeMachine:
		return g.generateML(name), nil
	case TypeScraping, TypeCrawler:
		return g.generateScraping(name), nil
	case TypeTesting, TypeQA:
		return g.generateTesting(name), nil
	case TypeSimple, TypeBasic:
		return g.generateSimple(name), nil
	default:
		return nil, fmt.Errorf("unknown template type: %s (supported: datascience, web, ml, scraping, testing, simple)", templateType)
	}
}

// GenerateTOML renders the template as a [[environments]] block ready to
// paste into the provenv config file.
func (g *Generator) GenerateTOML(templateType TemplateType, name string) (string, error) {
	tpl, err := g.Generate(templateType, name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if tpl.Description != "" {
		fmt.Fprintf(&b, "# %s\n", tpl.Description)
	}
	b.WriteString("[[environments]]\n")
	fmt.Fprintf(&b, "name = %q\n", tpl.Name)
	b.WriteString("packages = [\n")
	for _, p := range tpl.Packages {
		fmt.Fprintf(&b, "  %q,\n", p)
	}
	b.WriteString("]\n")
	return b.String(), nil
}

// GetSupportedTypes returns a list of all supported template types
func (g *Generator) GetSupportedTypes() []string {
	return []string{
		string(TypeDataScience),
		string(TypeWeb),
		string(TypeML),
		string(TypeScraping),
		string(TypeTesting),
		string(TypeSimple),
	}
}

// Helper functions to create specific templates

func (g *Generator) generateDataScience(name string) *EnvironmentTemplate {
	return &EnvironmentTemplate{
		Name:        name,
		Description: "Interactive data analysis environment",
		Packages: []string{
			"numpy",
			"pandas",
			"matplotlib",
			"jupyterlab",
		},
	}
}

func (g *Generator) generateWebService(name string) *EnvironmentTemplate {
	return &EnvironmentTemplate{
		Name:        name,
		Description: "HTTP service environment",
		Packages: []string{
			"fastapi",
			"uvicorn[standard]",
			"pydantic",
		},
	}
}

func (g *Generator) generateML(name string) *EnvironmentTemplate {
	return &EnvironmentTemplate{
		Name:        name,
		Description: "Model training environment",
		Packages: []string{
			"numpy",
			"scikit-learn",
			"torch",
		},
	}
}

func (g *Generator) generateScraping(name string) *EnvironmentTemplate {
	return &EnvironmentTemplate{
		Name:        name,
		Description: "Web scraping environment",
		Packages: []string{
			"requests",
			"beautifulsoup4",
			"lxml",
		},
	}
}

func (g *Generator) generateTesting(name string) *EnvironmentTemplate {
	return &EnvironmentTemplate{
		Name:        name,
		Description: "Test tooling environment",
		Packages: []string{
			"pytest",
			"pytest-cov",
			"tox",
		},
	}
}

func (g *Generator) generateSimple(name string) *EnvironmentTemplate {
	return &EnvironmentTemplate{
		Name:     name,
		Packages: []string{"requests"},
	}
}
