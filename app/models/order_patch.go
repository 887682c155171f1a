package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// OrderPatch is a partial update. Nil fields are left untouched; present
// fields are set individually, so updating management.status keeps
// management.value. Measurements, when present, replace the whole set.
type OrderPatch struct {
	Client     *ClientPatch     `json:"client"`
	Garment    *GarmentPatch    `json:"garment"`
	Management *ManagementPatch `json:"management"`

	// MeasurementSets holds single measurements addressed by dotted keys
	// such as "garment.measurements.cintura". Unlike Garment.Measurements
	// they merge into the stored set.
	MeasurementSets Measurements `json:"-"`
}

type ClientPatch struct {
	Name  *string `json:"name"  validate:"omitempty,max=200"`
	Phone *string `json:"phone" validate:"omitempty,max=40"`
}

type GarmentPatch struct {
	Type             *string       `json:"type"             validate:"omitempty,max=120"`
	Measurements     *Measurements `json:"measurements"`
	Description      *string       `json:"description"      validate:"omitempty,max=4000"`
	PreviewReference *string       `json:"previewReference" validate:"omitempty,max=2048"`
}

type ManagementPatch struct {
	Value      *float64   `json:"value"      validate:"omitempty,gte=0"`
	Status     *Status    `json:"status"`
	IntakeDate *time.Time `json:"intakeDate"`
}

// Field is one leaf assignment, addressed by its dotted document path.
type Field struct {
	Path  string
	Value interface{}
}

// Document paths of the patchable leaves.
const (
	PathClientName       = "client.name"
	PathClientPhone      = "client.phone"
	PathGarmentType      = "garment.type"
	PathGarmentMeasures  = "garment.measurements"
	PathGarmentDesc      = "garment.description"
	PathGarmentPreview   = "garment.previewReference"
	PathManagementValue  = "management.value"
	PathManagementStatus = "management.status"
	PathManagementIntake = "management.intakeDate"
)

// MeasurementName reports the measurement addressed by a per-key path such
// as "garment.measurements.cintura".
func MeasurementName(path string) (string, bool) {
	name, ok := strings.CutPrefix(path, PathGarmentMeasures+".")
	return name, ok && name != ""
}

type orderPatchAlias OrderPatch

// UnmarshalJSON also accepts dotted top-level keys such as
// {"management.status": "Done"}, which older clients send. A dotted key
// below garment.measurements sets that one measurement. Unknown keys,
// including ownerId and id, are ignored.
func (p *OrderPatch) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	nested := map[string]interface{}{}
	var sets Measurements
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, PathGarmentMeasures+"."); ok {
			if err := setMeasurement(&sets, name, flat[key]); err != nil {
				return err
			}
			continue
		}
		if err := assign(nested, strings.Split(key, "."), flat[key]); err != nil {
			return err
		}
	}

	expanded, err := json.Marshal(nested)
	if err != nil {
		return err
	}

	var alias orderPatchAlias
	if err := json.Unmarshal(expanded, &alias); err != nil {
		return err
	}
	*p = OrderPatch(alias)
	p.MeasurementSets = sets

	if p.Management != nil && p.Management.Status != nil && *p.Management.Status == "" {
		return fmt.Errorf("status cannot be empty")
	}
	return nil
}

// setMeasurement decodes one dotted measurement through the Measurements
// codec so the same primitive-only rule applies.
func setMeasurement(into *Measurements, name string, raw json.RawMessage) error {
	if name == "" || strings.Contains(name, ".") || strings.HasPrefix(name, "$") {
		return fmt.Errorf("invalid measurement name %q", name)
	}
	obj, err := json.Marshal(map[string]json.RawMessage{name: raw})
	if err != nil {
		return err
	}
	var one Measurements
	if err := json.Unmarshal(obj, &one); err != nil {
		return err
	}
	into.Set(name, one[0].Value)
	return nil
}

// assign places raw at the nested path, merging objects that were given
// both as {"client": {...}} and "client.phone".
func assign(into map[string]interface{}, path []string, raw json.RawMessage) error {
	head := path[0]
	if len(path) == 1 {
		if existing, ok := into[head].(map[string]interface{}); ok {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return fmt.Errorf("%s: expected object", head)
			}
			for k, v := range obj {
				if _, taken := existing[k]; !taken {
					existing[k] = v
				}
			}
			return nil
		}
		into[head] = raw
		return nil
	}

	child, ok := into[head].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		if prev, had := into[head].(json.RawMessage); had {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(prev, &obj); err != nil {
				return fmt.Errorf("%s: expected object", head)
			}
			for k, v := range obj {
				child[k] = v
			}
		}
		into[head] = child
	}
	return assign(child, path[1:], raw)
}

// Fields lists the leaf assignments in a stable order. Dotted measurements
// become one field each, or are folded into the replacement set when the
// patch also replaces the whole set.
func (p OrderPatch) Fields() []Field {
	var out []Field
	add := func(path string, v interface{}) { out = append(out, Field{Path: path, Value: v}) }

	if c := p.Client; c != nil {
		if c.Name != nil {
			add(PathClientName, *c.Name)
		}
		if c.Phone != nil {
			add(PathClientPhone, *c.Phone)
		}
	}
	if g := p.Garment; g != nil {
		if g.Type != nil {
			add(PathGarmentType, *g.Type)
		}
		if g.Measurements != nil {
			m := g.Measurements.Clone()
			if m == nil {
				m = Measurements{}
			}
			for _, e := range p.MeasurementSets {
				m.Set(e.Name, e.Value)
			}
			add(PathGarmentMeasures, m)
		}
		if g.Description != nil {
			add(PathGarmentDesc, *g.Description)
		}
		if g.PreviewReference != nil {
			add(PathGarmentPreview, *g.PreviewReference)
		}
	}
	if p.Garment == nil || p.Garment.Measurements == nil {
		for _, e := range p.MeasurementSets {
			add(PathGarmentMeasures+"."+e.Name, e.Value)
		}
	}
	if m := p.Management; m != nil {
		if m.Value != nil {
			add(PathManagementValue, *m.Value)
		}
		if m.Status != nil {
			add(PathManagementStatus, *m.Status)
		}
		if m.IntakeDate != nil {
			add(PathManagementIntake, StoreTime(*m.IntakeDate))
		}
	}
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p OrderPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Validate checks the values that must never be persisted.
func (p OrderPatch) Validate() error {
	if p.Management != nil && p.Management.Status != nil && !p.Management.Status.Valid() {
		return fmt.Errorf("invalid status %q", *p.Management.Status)
	}
	return nil
}

// Apply writes the patch onto o in place.
func (p OrderPatch) Apply(o *Order) {
	for _, f := range p.Fields() {
		switch f.Path {
		case PathClientName:
			o.Client.Name = f.Value.(string)
		case PathClientPhone:
			o.Client.Phone = f.Value.(string)
		case PathGarmentType:
			o.Garment.Type = f.Value.(string)
		case PathGarmentMeasures:
			o.Garment.Measurements = f.Value.(Measurements)
		case PathGarmentDesc:
			o.Garment.Description = f.Value.(string)
		case PathGarmentPreview:
			o.Garment.PreviewReference = f.Value.(string)
		case PathManagementValue:
			o.Management.Value = f.Value.(float64)
		case PathManagementStatus:
			o.Management.Status = f.Value.(Status)
		case PathManagementIntake:
			o.Management.IntakeDate = f.Value.(time.Time)
		default:
			if name, ok := MeasurementName(f.Path); ok {
				m := o.Garment.Measurements.Clone()
				m.Set(name, f.Value)
				o.Garment.Measurements = m
			}
		}
	}
}
