package client

import (
	"fmt"
	"strconv"
	"strings"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumber
)

type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Schema parameterizes a record controller: the REST resource it talks
// to, the editable fields and which of them gate submission.
type Schema struct {
	Resource     string
	FilterFields []string
	Fields       []Field
}

func (s Schema) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Normalize turns raw form strings into the flat JSON payload: numbers
// parsed as floats, blanks as nulls, required fields passed through
// verbatim. An unparsable number is a validation error.
func (s Schema) Normalize(form map[string]string) (map[string]interface{}, error) {
	payload := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		raw := strings.TrimSpace(form[f.Name])
		if f.Required {
			if raw == "" {
				return nil, fmt.Errorf("%w: %s is required", ErrValidation, f.Name)
			}
			payload[f.Name] = raw
			continue
		}
		if raw == "" {
			payload[f.Name] = nil
			continue
		}
		if f.Kind == FieldNumber {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", ErrValidation, f.Name)
			}
			payload[f.Name] = v
			continue
		}
		payload[f.Name] = raw
	}
	return payload, nil
}

// ResinSpinningSchema describes the resin & spinning process record.
func ResinSpinningSchema() Schema {
	return Schema{
		Resource:     "/api/resin-spinning",
		FilterFields: []string{"batch_number", "material_grade", "resin_type"},
		Fields: []Field{
			{Name: "batch_number", Kind: FieldText, Required: true},
			{Name: "material_grade", Kind: FieldText, Required: true},
			{Name: "supplier", Kind: FieldText},
			{Name: "resin_type", Kind: FieldText},
			{Name: "resin_molecular_weight_g_mol", Kind: FieldNumber},
			{Name: "polydispersity_index_pdi", Kind: FieldNumber},
			{Name: "intrinsic_viscosity_dl_g", Kind: FieldNumber},
			{Name: "melting_point_c", Kind: FieldNumber},
			{Name: "crystallinity_percent", Kind: FieldNumber},
			{Name: "spinning_method", Kind: FieldText},
			{Name: "solvent_system", Kind: FieldText},
			{Name: "solution_concentration_percent", Kind: FieldNumber},
			{Name: "spinning_temperature_c", Kind: FieldNumber},
			{Name: "spinneret_specifications", Kind: FieldText},
			{Name: "coagulation_bath_composition", Kind: FieldText},
			{Name: "coagulation_bath_temperature_c", Kind: FieldNumber},
			{Name: "draw_ratio", Kind: FieldNumber},
			{Name: "heat_treatment_temperature_c", Kind: FieldNumber},
			{Name: "remarks", Kind: FieldText},
		},
	}
}
