// SPDX-License-Identifier: EPL-2.0

package param

import "encoding/json"

// schemaJSON mirrors the wire shape spec.md §6 defines for host/UI
// bridges: {id, name, type, default, step?, values?, polarity, unit?}.
// This is a small, self-describing document exchanged rarely (schema
// publication, not per-sample), so it is built on the standard
// library's encoding/json rather than a third-party codec; see
// DESIGN.md for the full justification.
type schemaJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Default  float64  `json:"default"`
	Step     float64  `json:"step,omitempty"`
	Values   []string `json:"values,omitempty"`
	Polarity string   `json:"polarity"`
	Unit     string   `json:"unit,omitempty"`
}

// MarshalJSON implements json.Marshaler for Description, producing the
// exact host/UI bridge shape from spec.md §6.
func (d Description) MarshalJSON() ([]byte, error) {
	return json.Marshal(schemaJSON{
		ID:       d.ID.String(),
		Name:     d.Name,
		Type:     d.Kind.String(),
		Default:  d.DefaultNormalized(),
		Step:     d.Step,
		Values:   d.EnumValues,
		Polarity: d.Polarity.String(),
		Unit:     d.Unit.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler for Description, restoring
// the fields the wire shape carries. Min/Max/Curve/Randomizable are not
// part of the wire shape (spec.md §6 lists only the host/UI-facing
// subset) and are left at their zero values; callers that need the
// full schema round-tripped keep the Go Description directly. The wire
// default is normalized and is stored in Default as is: with no
// Min/Max/Curve to map it through, it is not converted to a raw value.
func (d *Description) UnmarshalJSON(data []byte) error {
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := NewID(raw.ID)
	if err != nil {
		return err
	}
	d.ID = id
	d.Name = raw.Name
	d.EnumValues = raw.Values
	d.Step = raw.Step

	switch raw.Type {
	case "Integer":
		d.Kind = KindInteger
	case "Boolean":
		d.Kind = KindBoolean
	case "Enum":
		d.Kind = KindEnum
	default:
		d.Kind = KindFloat
	}

	if raw.Polarity == "bipolar" {
		d.Polarity = Bipolar
	} else {
		d.Polarity = Unipolar
	}

	switch raw.Unit {
	case "dB":
		d.Unit = UnitDecibels
	case "Hz":
		d.Unit = UnitHertz
	case "%":
		d.Unit = UnitPercent
	case "s":
		d.Unit = UnitSeconds
	case "ms":
		d.Unit = UnitMilliseconds
	default:
		d.Unit = UnitNone
	}

	d.Default = raw.Default
	return nil
}
