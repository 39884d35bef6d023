package entities

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementIDs(t *testing.T) {
	assert.Equal(t, "element_0", ElementID(0, 0))
	assert.Equal(t, "element_4", ElementID(0, 4))
	assert.Equal(t, "element_6", ElementID(1, 0))
	assert.Equal(t, "element_62", ElementID(10, 2))
	assert.Equal(t, "element_6-element_10", ElementRange(1))
}

func TestSlotsDoNotOverlap(t *testing.T) {
	for n := 0; n < 50; n++ {
		last := BaseIndex(n) + SlotWidth - 1
		assert.Equal(t, fmt.Sprintf("element_%d", last+1), ElementID(n+1, 0))
	}
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "input#element_3, select#element_3, textarea#element_3", Selector("element_3"))
}

func TestPlanFullRow(t *testing.T) {
	row := Row{Index: 2, Values: []string{"Ann", " Lee ", "F", "31", "100", "ignored"}}
	fields := Plan(row)
	require.Len(t, fields, ConsumedFields)

	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ElementID)
	}
	assert.Equal(t, []string{"element_12", "element_13", "element_14", "element_15", "element_16"}, ids)
	assert.Equal(t, "Lee", fields[1].Value)
	assert.Equal(t, FieldSelect, fields[2].Kind)
	assert.Equal(t, "field 3 (element_14)", fields[2].Description())
	assert.Equal(t, Selector("element_16"), fields[4].Selector)
}

func TestPlanSkipsMissingValues(t *testing.T) {
	row := Row{Index: 0, Values: []string{"Ann", "", "  ", "31"}}
	fields := Plan(row)
	require.Len(t, fields, 2)
	assert.Equal(t, "element_0", fields[0].ElementID)
	assert.Equal(t, "element_3", fields[1].ElementID)
}

func TestRowFields(t *testing.T) {
	row := Row{Index: 0, Values: []string{"a", "b", "c"}}
	assert.Equal(t, map[string]string{"x": "a", "y": "b", "col_2": "c"}, row.Fields([]string{"x", "y"}))
	assert.Equal(t, 1, row.Number())
}

func TestParseLoginMode(t *testing.T) {
	m, err := ParseLoginMode("")
	require.NoError(t, err)
	assert.Equal(t, LoginManual, m)

	m, err = ParseLoginMode("auto")
	require.NoError(t, err)
	assert.Equal(t, LoginAuto, m)

	_, err = ParseLoginMode("sso")
	assert.Error(t, err)
}

func TestReportRecord(t *testing.T) {
	r := &Report{Total: 3}
	r.Record(RowOutcome{Entry: 1, Success: true})
	r.Record(RowOutcome{Entry: 2})
	assert.Equal(t, 1, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 2, r.Processed())
	assert.Len(t, r.Outcomes, 2)
}
