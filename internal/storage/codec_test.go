package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/rulesmith/internal/common"
)

func TestEncodeList(t *testing.T) {
	tests := []struct {
		name string
		want string
		in   []string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "single", in: []string{"go"}, want: "go"},
		{name: "trims and drops blanks", in: []string{" go ", "", "  ", "lint"}, want: "go,lint"},
		{name: "split all is repaired", in: []string{"a", "l", "l"}, want: "all"},
		{name: "plain all", in: []string{"all"}, want: "all"},
		{name: "single letters that are not all", in: []string{"a", "b"}, want: "a,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeList(tt.in))
		})
	}
}

func TestDecodeList(t *testing.T) {
	assert.Equal(t, []string{}, decodeList(""))
	assert.Equal(t, []string{}, decodeList(" , ,"))
	assert.Equal(t, []string{"go", "lint"}, decodeList("go, lint"))
	assert.Equal(t, []string{"all"}, decodeList(encodeList([]string{"a", "l", "l"})))
}

func TestStaleRule(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	err := staleRule("r1", cause)

	assert.ErrorIs(t, err, common.ErrStaleRule)
	assert.True(t, common.IsRetryable(err))
	assert.Contains(t, err.Error(), "r1")
	assert.Contains(t, err.Error(), "UNIQUE")
	assert.Equal(t, common.ErrStaleRule.Error()+": rule r2", staleRule("r2", nil).Error())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
