package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExamStructure is the template used to assemble a mock exam for one license type.
// Structure maps a category id to the number of questions drawn from it.
type ExamStructure struct {
	LicenseType    string        `yaml:"licenseType" json:"licenseType"`
	TotalQuestions int           `yaml:"totalQuestions" json:"totalQuestions"`
	PassingScore   int           `yaml:"passingScore" json:"passingScore"`
	Structure      map[int64]int `yaml:"structure" json:"structure"`
}

// CategoryQuota is one (category, count) pair of a structure, in category order.
type CategoryQuota struct {
	CategoryID int64
	Count      int
}

// Quotas returns the category map as a slice sorted by category id.
func (s ExamStructure) Quotas() []CategoryQuota {
	out := make([]CategoryQuota, 0, len(s.Structure))
	for id, n := range s.Structure {
		out = append(out, CategoryQuota{CategoryID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out
}

type examStructureFile struct {
	ExamStructures []ExamStructure `yaml:"examStructures"`
}

// ExamStructures is the read-only set of exam templates keyed by license code.
// It is built once at start-up and safe for concurrent reads.
type ExamStructures struct {
	byCode map[string]ExamStructure
}

// LoadExamStructures reads and validates the YAML file at path.
func LoadExamStructures(path string) (*ExamStructures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exam structures: %w", err)
	}
	return ParseExamStructures(data)
}

// ParseExamStructures decodes a YAML document with a top-level examStructures list.
func ParseExamStructures(data []byte) (*ExamStructures, error) {
	var f examStructureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse exam structures: %w", err)
	}
	return NewExamStructures(f.ExamStructures)
}

// NewExamStructures validates the templates and indexes them by upper-cased code.
func NewExamStructures(list []ExamStructure) (*ExamStructures, error) {
	byCode := make(map[string]ExamStructure, len(list))
	for _, s := range list {
		code := normalizeCode(s.LicenseType)
		if code == "" {
			return nil, fmt.Errorf("exam structure: missing licenseType")
		}
		if _, dup := byCode[code]; dup {
			return nil, fmt.Errorf("exam structure %s: duplicate licenseType", code)
		}
		if len(s.Structure) == 0 {
			return nil, fmt.Errorf("exam structure %s: empty category structure", code)
		}

		sum := 0
		cp := make(map[int64]int, len(s.Structure))
		for catID, n := range s.Structure {
			if catID <= 0 || n <= 0 {
				return nil, fmt.Errorf("exam structure %s: invalid entry %d -> %d", code, catID, n)
			}
			sum += n
			cp[catID] = n
		}
		if sum != s.TotalQuestions {
			return nil, fmt.Errorf("exam structure %s: categories sum to %d, totalQuestions is %d", code, sum, s.TotalQuestions)
		}
		if s.PassingScore <= 0 || s.PassingScore > s.TotalQuestions {
			return nil, fmt.Errorf("exam structure %s: passingScore %d out of range", code, s.PassingScore)
		}

		s.LicenseType = code
		s.Structure = cp
		byCode[code] = s
	}
	return &ExamStructures{byCode: byCode}, nil
}

// Lookup returns a copy of the template for code. Codes are case-insensitive.
func (e *ExamStructures) Lookup(code string) (ExamStructure, bool) {
	if e == nil {
		return ExamStructure{}, false
	}
	s, ok := e.byCode[normalizeCode(code)]
	if !ok {
		return ExamStructure{}, false
	}
	cp := make(map[int64]int, len(s.Structure))
	for k, v := range s.Structure {
		cp[k] = v
	}
	s.Structure = cp
	return s, true
}

// Codes lists the configured license codes in sorted order.
func (e *ExamStructures) Codes() []string {
	codes := make([]string, 0, len(e.byCode))
	for c := range e.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
