package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"title"`, QuoteIdentifier("title"))
	assert.Equal(t, `"weird""name"`, QuoteIdentifier(`weird"name`))
	assert.Equal(t, []string{`"a"`, `"b"`}, QuoteIdentifiers([]string{"a", "b"}))
}

func TestQuoteValue(t *testing.T) {
	five := 5
	var nilPtr *int
	tests := []struct {
		name string
		arg  any
		want string
	}{
		{"nil", nil, "null"},
		{"int", 42, "42"},
		{"int64", int64(-1), "-1"},
		{"float", 1.25, "1.25"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"string", "hello", "'hello'"},
		{"string with quote", "o'brien", "'o''brien'"},
		{"string with null byte", "a\x00b", "'ab'"},
		{"string slice", []string{"a", "b"}, "('a','b')"},
		{"any slice", []any{1, "a"}, "(1,'a')"},
		{"pointer", &five, "5"},
		{"nil pointer", nilPtr, "null"},
		{"time", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), "'2024-03-01 12:30:00Z'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteValue(tt.arg))
		})
	}
}
