package research

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

type rawCompany struct {
	Name            string   `mapstructure:"name"`
	Description     string   `mapstructure:"description"`
	Industry        string   `mapstructure:"industry"`
	GrowthStage     string   `mapstructure:"growth_stage"`
	Products        []string `mapstructure:"products"`
	TargetCustomers []string `mapstructure:"target_customers"`
	Values          []string `mapstructure:"values"`
	Competitors     []string `mapstructure:"competitors"`
	Stakeholders    []string `mapstructure:"stakeholders"`
	Metrics         []string `mapstructure:"metrics"`
}

type rawRole struct {
	Title            string   `mapstructure:"title"`
	Category         string   `mapstructure:"category"`
	Seniority        string   `mapstructure:"seniority"`
	Responsibilities []string `mapstructure:"responsibilities"`
	Deliverables     []string `mapstructure:"deliverables"`
	Stakeholders     []string `mapstructure:"stakeholders"`
	HardSkills       []string `mapstructure:"hard_skills"`
	SoftSkills       []string `mapstructure:"soft_skills"`
	Tools            []string `mapstructure:"tools"`
}

type rawFindings struct {
	Company rawCompany `mapstructure:"company"`
	Role    rawRole    `mapstructure:"role"`
}

// parseFindings decodes the extraction reply leniently: models return
// strings where lists are expected often enough that a strict unmarshal
// would reject usable output.
func parseFindings(raw, nameHint string) (*Findings, error) {
	cleaned := promptkit.ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse research response: %w", err)
	}

	var doc rawFindings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build research decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode research response: %w", err)
	}

	company := assessment.CompanyProfile{
		Name:            strings.TrimSpace(doc.Company.Name),
		Description:     strings.TrimSpace(doc.Company.Description),
		Industry:        strings.TrimSpace(doc.Company.Industry),
		Products:        cleanList(doc.Company.Products),
		TargetCustomers: cleanList(doc.Company.TargetCustomers),
		Values:          cleanList(doc.Company.Values),
		Competitors:     cleanList(doc.Company.Competitors),
		Stakeholders:    cleanList(doc.Company.Stakeholders),
		Metrics:         cleanList(doc.Company.Metrics),
	}

	role := assessment.RoleProfile{
		Title:            strings.TrimSpace(doc.Role.Title),
		Category:         assessment.ParseRoleCategory(doc.Role.Category),
		Seniority:        assessment.ParseSeniority(doc.Role.Seniority),
		Responsibilities: cleanList(doc.Role.Responsibilities),
		Deliverables:     cleanList(doc.Role.Deliverables),
		Stakeholders:     cleanList(doc.Role.Stakeholders),
		HardSkills:       cleanList(doc.Role.HardSkills),
		SoftSkills:       cleanList(doc.Role.SoftSkills),
		Tools:            cleanList(doc.Role.Tools),
	}

	// Enum fields always parse to something valid, so absence has to be
	// recorded before parsing.
	var defaulted []string
	if strings.TrimSpace(doc.Company.GrowthStage) == "" {
		defaulted = append(defaulted, "company.growth_stage")
	}
	if strings.TrimSpace(doc.Role.Category) == "" {
		defaulted = append(defaulted, "role.category")
	}
	if strings.TrimSpace(doc.Role.Seniority) == "" {
		defaulted = append(defaulted, "role.seniority")
	}
	company.GrowthStage = assessment.ParseGrowthStage(doc.Company.GrowthStage)

	if company.Name == "" && nameHint != "" {
		company.Name = nameHint
	}

	defaulted = append(defaulted, fillCompanyDefaults(&company)...)
	defaulted = append(defaulted, fillRoleDefaults(&role)...)

	return &Findings{Company: company, Role: role, Defaulted: defaulted}, nil
}

// fillCompanyDefaults replaces empty company fields with generic but usable
// values and reports which fields needed it. Downstream prompt building
// assumes every field is populated.
func fillCompanyDefaults(c *assessment.CompanyProfile) []string {
	var defaulted []string

	if c.Name == "" {
		c.Name = "the company"
		defaulted = append(defaulted, "company.name")
	}
	if c.Description == "" {
		c.Description = c.Name + " is a growing company in its market."
		defaulted = append(defaulted, "company.description")
	}
	if c.Industry == "" {
		c.Industry = "technology"
		defaulted = append(defaulted, "company.industry")
	}
	if len(c.Products) == 0 {
		c.Products = []string{"its core product"}
		defaulted = append(defaulted, "company.products")
	}
	if len(c.TargetCustomers) == 0 {
		c.TargetCustomers = []string{"business customers"}
		defaulted = append(defaulted, "company.target_customers")
	}
	if len(c.Values) == 0 {
		c.Values = []string{"customer focus", "ownership"}
		defaulted = append(defaulted, "company.values")
	}
	if len(c.Competitors) == 0 {
		c.Competitors = []string{"established players in the space"}
		defaulted = append(defaulted, "company.competitors")
	}
	if len(c.Stakeholders) == 0 {
		c.Stakeholders = []string{"customers", "leadership", "cross-functional peers"}
		defaulted = append(defaulted, "company.stakeholders")
	}
	if len(c.Metrics) == 0 {
		c.Metrics = []string{"revenue growth", "customer retention"}
		defaulted = append(defaulted, "company.metrics")
	}

	return defaulted
}

// fillRoleDefaults mirrors fillCompanyDefaults for the role profile.
func fillRoleDefaults(r *assessment.RoleProfile) []string {
	var defaulted []string

	if r.Title == "" {
		r.Title = "Team Member"
		defaulted = append(defaulted, "role.title")
	}
	if r.Category == "" {
		r.Category = assessment.CategoryGeneral
		defaulted = append(defaulted, "role.category")
	}
	if r.Seniority == "" {
		r.Seniority = assessment.SeniorityIC
		defaulted = append(defaulted, "role.seniority")
	}
	if len(r.Responsibilities) == 0 {
		r.Responsibilities = []string{"own the day-to-day execution of the role"}
		defaulted = append(defaulted, "role.responsibilities")
	}
	if len(r.Deliverables) == 0 {
		r.Deliverables = []string{"consistent, high-quality output in the role's core area"}
		defaulted = append(defaulted, "role.deliverables")
	}
	if len(r.Stakeholders) == 0 {
		r.Stakeholders = []string{"direct manager", "immediate team"}
		defaulted = append(defaulted, "role.stakeholders")
	}
	if len(r.HardSkills) == 0 {
		r.HardSkills = []string{"domain knowledge"}
		defaulted = append(defaulted, "role.hard_skills")
	}
	if len(r.SoftSkills) == 0 {
		r.SoftSkills = []string{"communication", "prioritization"}
		defaulted = append(defaulted, "role.soft_skills")
	}
	if len(r.Tools) == 0 {
		r.Tools = []string{"email", "spreadsheets"}
		defaulted = append(defaulted, "role.tools")
	}

	return defaulted
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)
	}
	return cleaned
}
