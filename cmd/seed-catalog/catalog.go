package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"gopkg.in/yaml.v3"
)

// catalogFile is one YAML seed document. Several files are merged.
type catalogFile struct {
	Categories   []seedCategory    `yaml:"categories"`
	LicenseTypes []seedLicenseType `yaml:"licenseTypes"`
	Questions    []seedQuestion    `yaml:"questions"`
	TrafficSigns []seedSign        `yaml:"trafficSigns"`
}

type seedCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	OrderIndex  int    `yaml:"order"`
}

type seedLicenseType struct {
	Code                string `yaml:"code"`
	Name                string `yaml:"name"`
	VehicleType         string `yaml:"vehicleType"`
	TotalQuestions      int    `yaml:"totalQuestions"`
	TimeLimit           int    `yaml:"timeLimit"`
	PassingScore        int    `yaml:"passingScore"`
	RequiredElimination *int   `yaml:"requiredElimination"`
}

type seedQuestion struct {
	Number        int          `yaml:"number"`
	Category      string       `yaml:"category"`
	Text          string       `yaml:"text"`
	Explanation   string       `yaml:"explanation"`
	Difficulty    string       `yaml:"difficulty"`
	IsElimination bool         `yaml:"elimination"`
	ImageURL      string       `yaml:"imageUrl"`
	Licenses      []string     `yaml:"licenses"`
	Options       []seedOption `yaml:"options"`
}

type seedOption struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type seedSign struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Meaning     string `yaml:"meaning"`
	ImageURL    string `yaml:"imageUrl"`
	Category    string `yaml:"category"`
}

func loadCatalogFile(path string) (*catalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// mergeCatalogs concatenates files in argument order.
func mergeCatalogs(files []*catalogFile) *catalogFile {
	out := &catalogFile{}
	for _, f := range files {
		out.Categories = append(out.Categories, f.Categories...)
		out.LicenseTypes = append(out.LicenseTypes, f.LicenseTypes...)
		out.Questions = append(out.Questions, f.Questions...)
		out.TrafficSigns = append(out.TrafficSigns, f.TrafficSigns...)
	}
	return out
}

// validate checks cross references and the single-correct-option rule so a
// bad file fails before anything is written.
func (c *catalogFile) validate() error {
	categories := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category without name")
		}
		categories[cat.Name] = true
	}
	licenses := make(map[string]bool, len(c.LicenseTypes))
	for _, lt := range c.LicenseTypes {
		code := strings.ToUpper(strings.TrimSpace(lt.Code))
		if code == "" {
			return fmt.Errorf("license type without code")
		}
		licenses[code] = true
	}

	numbers := make(map[int]bool, len(c.Questions))
	for _, q := range c.Questions {
		if q.Number <= 0 {
			return fmt.Errorf("question %q: number must be positive", q.Text)
		}
		if numbers[q.Number] {
			return fmt.Errorf("question %d: duplicate number", q.Number)
		}
		numbers[q.Number] = true
		if !categories[q.Category] {
			return fmt.Errorf("question %d: unknown category %q", q.Number, q.Category)
		}
		for _, code := range q.Licenses {
			if !licenses[strings.ToUpper(code)] {
				return fmt.Errorf("question %d: unknown license %q", q.Number, code)
			}
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: at least two options required", q.Number)
		}
		correct := 0
		for _, o := range q.Options {
			if o.Correct {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("question %d: exactly one correct option required, got %d", q.Number, correct)
		}
	}

	for _, s := range c.TrafficSigns {
		if s.Code == "" || s.Name == "" {
			return fmt.Errorf("traffic sign needs code and name")
		}
		if _, ok := signType(s.Type); !ok {
			return fmt.Errorf("traffic sign %s: unknown type %q", s.Code, s.Type)
		}
		if s.Category != "" && !categories[s.Category] {
			return fmt.Errorf("traffic sign %s: unknown category %q", s.Code, s.Category)
		}
	}
	return nil
}

func signType(raw string) (model.SignType, bool) {
	for _, t := range []model.SignType{
		model.SignTypeProhibition, model.SignTypeWarning, model.SignTypeMandatory,
		model.SignTypeInformation, model.SignTypeAdditional,
	} {
		if strings.EqualFold(string(t), raw) {
			return t, true
		}
	}
	return "", false
}

// toQuestion builds the model with options numbered from 1.
func (q seedQuestion) toQuestion(categoryID int64, licenseIDs []int64) *model.Question {
	out := &model.Question{
		QuestionNumber:  q.Number,
		CategoryID:      categoryID,
		QuestionText:    q.Text,
		ExplanationText: optional(q.Explanation),
		DifficultyLevel: q.Difficulty,
		IsElimination:   q.IsElimination,
		ImageURL:        optional(q.ImageURL),
		TimeLimit:       60,
		Points:          1,
		LicenseTypeIDs:  licenseIDs,
	}
	if out.DifficultyLevel == "" {
		out.DifficultyLevel = "Medium"
	}
	for i, o := range q.Options {
		out.AnswerOptions = append(out.AnswerOptions, model.AnswerOption{
			OptionText:  o.Text,
			IsCorrect:   o.Correct,
			OptionOrder: i + 1,
		})
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
