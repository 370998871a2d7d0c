package db

import (
	"strings"
	"testing"
)

// The slot index backs the doctor/minute conflict rule. Index expressions
// must be IMMUTABLE and date_trunc on timestamptz is not, so the index has
// to stay on the raw column pair; the minute granularity is guaranteed by
// the writers truncating scheduled_at.
func TestSchemaSlotIndexUsesRawColumns(t *testing.T) {
	start := strings.Index(schemaSQL, "appointments_doctor_slot_idx")
	if start < 0 {
		t.Fatal("slot index missing from schema")
	}
	stmt := schemaSQL[start:]
	if end := strings.Index(stmt, ";"); end >= 0 {
		stmt = stmt[:end]
	}

	if !strings.Contains(stmt, "(doctor_id, scheduled_at)") {
		t.Errorf("slot index does not cover (doctor_id, scheduled_at):\n%s", stmt)
	}
	if strings.Contains(stmt, "date_trunc") {
		t.Errorf("slot index uses a non-immutable expression:\n%s", stmt)
	}
	if !strings.Contains(stmt, "WHERE status <> 'cancelled'") {
		t.Errorf("slot index is not partial on non-cancelled rows:\n%s", stmt)
	}
}

// Named constraints are matched by name when mapping unique violations to
// domain errors, so the schema must keep declaring them.
func TestSchemaDeclaresNamedConstraints(t *testing.T) {
	for _, name := range []string{
		"doctors_tax_id_key",
		"doctors_license_number_key",
		"patients_tax_id_key",
		"appointments_doctor_slot_idx",
	} {
		if !strings.Contains(schemaSQL, name) {
			t.Errorf("schema missing constraint %s", name)
		}
	}
}
