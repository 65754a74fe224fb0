package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		input string
		want  FieldType
	}{
		{"data_entry", FieldTypeDataEntry},
		{" DATA_ENTRY ", FieldTypeDataEntry},
		{"signature", FieldTypeSignature},
		{"", FieldTypeSignature},
		{"checkbox", FieldTypeSignature},
		{"data-entry", FieldTypeSignature},
		{"initials", FieldTypeSignature},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFieldType(tt.input))
		})
	}
}

func TestStatusForFieldCount(t *testing.T) {
	assert.Equal(t, StatusDraft, StatusForFieldCount(0))
	assert.Equal(t, StatusPending, StatusForFieldCount(1))
	assert.Equal(t, StatusPending, StatusForFieldCount(12))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
}
