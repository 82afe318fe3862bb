package assessment

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"
)

// RoleCategory groups roles into families that share a question mix.
type RoleCategory string

const (
	CategorySales           RoleCategory = "sales"
	CategoryCustomerSuccess RoleCategory = "customer_success"
	CategoryProduct         RoleCategory = "product"
	CategoryMarketing       RoleCategory = "marketing"
	CategoryEngineering     RoleCategory = "engineering"
	CategoryOperations      RoleCategory = "operations"
	CategoryPeople          RoleCategory = "people"
	CategoryFinance         RoleCategory = "finance"
	CategoryGeneral         RoleCategory = "general"
)

// Categories lists every known role category.
func Categories() []RoleCategory {
	return []RoleCategory{
		CategorySales,
		CategoryCustomerSuccess,
		CategoryProduct,
		CategoryMarketing,
		CategoryEngineering,
		CategoryOperations,
		CategoryPeople,
		CategoryFinance,
		CategoryGeneral,
	}
}

// ParseRoleCategory maps free-form category text to a known category,
// falling back to general for anything it does not recognize.
func ParseRoleCategory(s string) RoleCategory {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, c := range Categories() {
		if normalized == string(c) {
			return c
		}
	}
	switch normalized {
	case "account_management", "business_development":
		return CategorySales
	case "support", "customer_support", "customer_experience":
		return CategoryCustomerSuccess
	case "software", "software_engineering", "data", "devops":
		return CategoryEngineering
	case "hr", "recruiting", "talent", "people_ops":
		return CategoryPeople
	case "growth", "content", "brand":
		return CategoryMarketing
	case "accounting", "fp_a", "fpa":
		return CategoryFinance
	case "ops", "bizops", "strategy":
		return CategoryOperations
	}
	return CategoryGeneral
}

// GrowthStage describes how far along an employer is.
type GrowthStage string

const (
	StageSeed   GrowthStage = "seed"
	StageEarly  GrowthStage = "early"
	StageGrowth GrowthStage = "growth"
	StageLate   GrowthStage = "late"
	StagePublic GrowthStage = "public"
)

// ParseGrowthStage maps free-form stage text to a known stage, defaulting to growth.
func ParseGrowthStage(s string) GrowthStage {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "seed", "pre-seed", "preseed":
		return StageSeed
	case "early", "series a", "series_a", "startup":
		return StageEarly
	case "growth", "series b", "series c", "scaleup", "scale-up":
		return StageGrowth
	case "late", "late_stage", "pre-ipo":
		return StageLate
	case "public", "enterprise", "listed":
		return StagePublic
	}
	return StageGrowth
}

// Seniority is a coarse seniority band used to calibrate scenario stakes.
type Seniority string

const (
	SeniorityIC        Seniority = "ic"
	SeniorityManager   Seniority = "manager"
	SeniorityDirector  Seniority = "director"
	SeniorityExecutive Seniority = "executive"
)

// ParseSeniority maps free-form seniority text to a band, defaulting to ic.
func ParseSeniority(s string) Seniority {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(normalized, "vp"),
		strings.Contains(normalized, "chief"),
		strings.Contains(normalized, "head of"),
		strings.Contains(normalized, "executive"):
		return SeniorityExecutive
	case strings.Contains(normalized, "director"):
		return SeniorityDirector
	case strings.Contains(normalized, "manager"), strings.Contains(normalized, "lead"):
		return SeniorityManager
	}
	return SeniorityIC
}

// Archetype is a category of scenario question with its own typical duration
// and skill focus.
type Archetype string

const (
	ArchetypeCrisisResponse      Archetype = "crisis_response"
	ArchetypeStakeholderConflict Archetype = "stakeholder_conflict"
	ArchetypeCommunicationDraft  Archetype = "communication_draft"
	ArchetypePrioritization      Archetype = "prioritization"
	ArchetypeAnalysisCase        Archetype = "analysis_case"
	ArchetypeProcessDesign       Archetype = "process_design"
)

// Archetypes lists every known question archetype.
func Archetypes() []Archetype {
	return []Archetype{
		ArchetypeCrisisResponse,
		ArchetypeStakeholderConflict,
		ArchetypeCommunicationDraft,
		ArchetypePrioritization,
		ArchetypeAnalysisCase,
		ArchetypeProcessDesign,
	}
}

// ParseArchetype maps free-form archetype text to a known archetype.
func ParseArchetype(s string) (Archetype, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, a := range Archetypes() {
		if string(a) == normalized {
			return a, true
		}
	}
	return "", false
}

// Scoring dimension names shared between generation and scoring prompts.
const (
	DimensionRelevance     = "relevance"
	DimensionJudgment      = "judgment"
	DimensionCommunication = "communication"
	DimensionExecution     = "execution"
	DimensionCompanyFit    = "company_fit"
	DimensionTechnical     = "technical_proficiency"
)

// ScoringDimension is one weighted axis of a question rubric.
type ScoringDimension struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Rubric describes how one question is scored.
type Rubric struct {
	Dimensions []ScoringDimension `json:"dimensions"`
	RedFlags   []string           `json:"red_flags,omitempty"`
	Bonuses    []string           `json:"bonuses,omitempty"`
}

// QuestionContext frames the scenario the candidate is dropped into.
type QuestionContext struct {
	Role        string   `json:"role"`
	Situation   string   `json:"situation"`
	Constraints []string `json:"constraints"`
	Stakes      string   `json:"stakes"`
}

// Question is one scenario inside an assessment. Immutable once compiled.
type Question struct {
	ID              string          `json:"id"`
	Archetype       Archetype       `json:"archetype"`
	Context         QuestionContext `json:"context"`
	Prompt          string          `json:"prompt"`
	AnswerFormat    string          `json:"answer_format"`
	TimeGuidanceMin int             `json:"time_guidance_minutes"`
	Rubric          Rubric          `json:"rubric"`
	Skills          []string        `json:"skills"`
	Rationale       string          `json:"rationale,omitempty"`
}

// CompanyProfile carries the employer facts that make scenarios specific.
// Created once by the research step and read-only afterwards.
type CompanyProfile struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Industry        string      `json:"industry"`
	GrowthStage     GrowthStage `json:"growth_stage"`
	Products        []string    `json:"products"`
	TargetCustomers []string    `json:"target_customers"`
	Values          []string    `json:"values"`
	Competitors     []string    `json:"competitors"`
	Stakeholders    []string    `json:"stakeholders"`
	Metrics         []string    `json:"metrics"`
}

// RoleProfile carries the role facts extracted from the posting.
// Created once by the research step and read-only afterwards.
type RoleProfile struct {
	Title            string       `json:"title"`
	Category         RoleCategory `json:"category"`
	Seniority        Seniority    `json:"seniority"`
	Responsibilities []string     `json:"responsibilities"`
	Deliverables     []string     `json:"deliverables"`
	Stakeholders     []string     `json:"stakeholders"`
	HardSkills       []string     `json:"hard_skills"`
	SoftSkills       []string     `json:"soft_skills"`
	Tools            []string     `json:"tools"`
}

// Assessment is an ordered set of questions plus the profiles it was built
// from. A new assessment is always a new object, never an edit.
type Assessment struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Company          CompanyProfile `json:"company"`
	Role             RoleProfile    `json:"role"`
	Questions        []Question     `json:"questions"`
	EstimatedMinutes int            `json:"estimated_minutes"`
	SkillsCovered    []string       `json:"skills_covered"`
	CreatedAt        time.Time      `json:"created_at"`
}

// QuestionByID returns the question with the given id, or nil.
func (a *Assessment) QuestionByID(id string) *Question {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i]
		}
	}
	return nil
}

// UnionSkills returns the de-duplicated union of all per-question skill
// lists, in first-seen order.
func UnionSkills(questions []Question) []string {
	seen := make(map[string]bool)
	union := make([]string, 0)
	for _, q := range questions {
		for _, skill := range q.Skills {
			skill = strings.TrimSpace(skill)
			if skill == "" {
				continue
			}
			key := strings.ToLower(skill)
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, skill)
		}
	}
	return union
}

// DumpToTmpFile writes the assessment as indented JSON to a temp file and
// returns its path.
func (a *Assessment) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "assessment_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// SortedSkills returns a sorted copy of the given skill list. Useful for
// stable report output.
func SortedSkills(skills []string) []string {
	out := make([]string, len(skills))
	copy(out, skills)
	sort.Strings(out)
	return out
}
