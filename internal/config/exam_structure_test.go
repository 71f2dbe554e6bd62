package config_test

import (
	"strings"
	"testing"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
)

const sampleStructures = `
examStructures:
  - licenseType: b1
    totalQuestions: 15
    passingScore: 12
    structure:
      2: 5
      1: 10
`

func TestParseExamStructures(t *testing.T) {
	s, err := config.ParseExamStructures([]byte(sampleStructures))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	b1, ok := s.Lookup("B1")
	if !ok {
		t.Fatal("expected B1 to be configured")
	}
	if b1.TotalQuestions != 15 || b1.PassingScore != 12 {
		t.Fatalf("unexpected template: %+v", b1)
	}

	quotas := b1.Quotas()
	if len(quotas) != 2 || quotas[0].CategoryID != 1 || quotas[0].Count != 10 || quotas[1].CategoryID != 2 {
		t.Fatalf("quotas not sorted by category: %+v", quotas)
	}

	if _, ok := s.Lookup(" b1 "); !ok {
		t.Fatal("lookup should be case-insensitive")
	}
	if _, ok := s.Lookup("Z9"); ok {
		t.Fatal("unknown code must not resolve")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	s, err := config.ParseExamStructures([]byte(sampleStructures))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	first, _ := s.Lookup("B1")
	first.Structure[1] = 99

	second, _ := s.Lookup("B1")
	if second.Structure[1] != 10 {
		t.Fatalf("mutating a lookup result leaked into the shared config: %d", second.Structure[1])
	}
}

func TestNewExamStructuresRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   config.ExamStructure
		want string
	}{
		{"missing code", config.ExamStructure{TotalQuestions: 1, PassingScore: 1, Structure: map[int64]int{1: 1}}, "missing licenseType"},
		{"empty structure", config.ExamStructure{LicenseType: "A1", TotalQuestions: 1, PassingScore: 1}, "empty category structure"},
		{"sum mismatch", config.ExamStructure{LicenseType: "A1", TotalQuestions: 5, PassingScore: 1, Structure: map[int64]int{1: 3}}, "sum to 3"},
		{"passing too high", config.ExamStructure{LicenseType: "A1", TotalQuestions: 3, PassingScore: 4, Structure: map[int64]int{1: 3}}, "out of range"},
		{"zero count", config.ExamStructure{LicenseType: "A1", TotalQuestions: 0, PassingScore: 1, Structure: map[int64]int{1: 0}}, "invalid entry"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.NewExamStructures([]config.ExamStructure{tc.in})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	dup := config.ExamStructure{LicenseType: "A1", TotalQuestions: 1, PassingScore: 1, Structure: map[int64]int{1: 1}}
	if _, err := config.NewExamStructures([]config.ExamStructure{dup, dup}); err == nil {
		t.Fatal("expected duplicate licenseType to be rejected")
	}
}

func TestShippedExamStructuresAreValid(t *testing.T) {
	s, err := config.LoadExamStructures("../../configs/exam_structures.yaml")
	if err != nil {
		t.Fatalf("load shipped structures: %v", err)
	}
	for _, code := range []string{"A1", "A2", "B1", "B2", "C"} {
		if _, ok := s.Lookup(code); !ok {
			t.Errorf("expected %s to be configured", code)
		}
	}
}
