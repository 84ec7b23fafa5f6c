package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLoginName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		loginName string
		wantErr   bool
	}{
		{"Valid", "malcolm", false},
		{"Dots And Dashes", "j.doe-2_x", false},
		{"Empty", "", true},
		{"Whitespace", "john doe", true},
		{"Too Long", strings.Repeat("a", 65), true},
		{"Exactly Max", strings.Repeat("a", 64), false},
		{"Illegal Chars", "user@host", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLoginName(tt.loginName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateDisplayName("Ada"))
	assert.NoError(t, ValidateDisplayName("Ångström"))
	assert.Error(t, ValidateDisplayName("   "))
	assert.Error(t, ValidateDisplayName(strings.Repeat("é", 101)))
}

func TestValidateCommentText(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCommentText("nice"))
	assert.Error(t, ValidateCommentText(""))
	assert.NoError(t, ValidateCommentText(strings.Repeat("ü", MaxCommentLength)))
	assert.Error(t, ValidateCommentText(strings.Repeat("a", MaxCommentLength+1)))
}

func TestAllNonEmpty(t *testing.T) {
	t.Parallel()
	assert.True(t, AllNonEmpty("a", "b"))
	assert.True(t, AllNonEmpty())
	assert.False(t, AllNonEmpty("a", " "))
}
