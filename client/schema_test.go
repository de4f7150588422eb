package client

import (
	"errors"
	"testing"
)

func TestNormalizeBlanksBecomeNull(t *testing.T) {
	s := ResinSpinningSchema()
	payload, err := s.Normalize(map[string]string{
		"batch_number":   " B-1 ",
		"material_grade": "GUR 4120",
		"supplier":       "   ",
		"draw_ratio":     "30.5",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if payload["batch_number"] != "B-1" {
		t.Fatalf("required field not trimmed verbatim: %v", payload["batch_number"])
	}
	if payload["supplier"] != nil {
		t.Fatalf("blank text should be null, got %v", payload["supplier"])
	}
	if payload["remarks"] != nil {
		t.Fatalf("absent field should be null")
	}
	if v, ok := payload["draw_ratio"].(float64); !ok || v != 30.5 {
		t.Fatalf("numeric field not parsed: %v", payload["draw_ratio"])
	}
	if _, present := payload["melting_point_c"]; !present {
		t.Fatalf("every schema field must appear in the payload")
	}
}

func TestNormalizeRequiredMissing(t *testing.T) {
	s := ResinSpinningSchema()
	_, err := s.Normalize(map[string]string{
		"batch_number":   "B-1",
		"material_grade": "  ",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeBadNumber(t *testing.T) {
	s := ResinSpinningSchema()
	_, err := s.Normalize(map[string]string{
		"batch_number":    "B-1",
		"material_grade":  "GUR 4120",
		"melting_point_c": "hot",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
