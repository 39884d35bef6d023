package entities

import "fmt"

const (
	// SlotWidth is the number of element ids one row occupies in the form.
	SlotWidth = 6
	// ConsumedFields is how many of those ids receive data; the last one is a heading.
	ConsumedFields = 5
)

// FieldKind tells the filler how to put a value into an element.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldSelect FieldKind = "select"
)

// FieldSpec maps a data column to an offset inside a form slot.
type FieldSpec struct {
	Column int       `json:"column"`
	Offset int       `json:"offset"`
	Kind   FieldKind `json:"kind"`
	Label  string    `json:"label"`
}

// FieldPlan is the fixed column -> element layout of one form slot.
var FieldPlan = []FieldSpec{
	{Column: 0, Offset: 0, Kind: FieldText, Label: "first name"},
	{Column: 1, Offset: 1, Kind: FieldText, Label: "last name"},
	{Column: 2, Offset: 2, Kind: FieldSelect, Label: "gender"},
	{Column: 3, Offset: 3, Kind: FieldText, Label: "age"},
	{Column: 4, Offset: 4, Kind: FieldText, Label: "id"},
}

// BaseIndex returns the first element number of the slot for row.
func BaseIndex(row int) int {
	return row * SlotWidth
}

// ElementID returns the DOM id of the element at offset within row's slot.
func ElementID(row, offset int) string {
	return fmt.Sprintf("element_%d", BaseIndex(row)+offset)
}

// Selector matches any input, select or textarea carrying id.
func Selector(id string) string {
	return fmt.Sprintf("input#%s, select#%s, textarea#%s", id, id, id)
}

// ElementRange describes the consumed ids of row's slot, e.g. "element_6-element_10".
func ElementRange(row int) string {
	return fmt.Sprintf("element_%d-element_%d", BaseIndex(row), BaseIndex(row)+ConsumedFields-1)
}

// PlannedField is a resolved FieldSpec for a concrete row.
type PlannedField struct {
	FieldSpec
	ElementID string `json:"element_id"`
	Selector  string `json:"selector"`
	Value     string `json:"value"`
}

// Description is the human readable name used in log lines.
func (p PlannedField) Description() string {
	return fmt.Sprintf("field %d (%s)", p.Column+1, p.ElementID)
}

// Plan resolves the fields of row that carry data. Missing values are skipped.
func Plan(row Row) []PlannedField {
	fields := make([]PlannedField, 0, len(FieldPlan))
	for _, spec := range FieldPlan {
		value, ok := row.Value(spec.Column)
		if !ok {
			continue
		}
		id := ElementID(row.Index, spec.Offset)
		fields = append(fields, PlannedField{
			FieldSpec: spec,
			ElementID: id,
			Selector:  Selector(id),
			Value:     value,
		})
	}
	return fields
}
