package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidChannelName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "general", true},
		{"spaces and unicode", "디자인 리뷰", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"reserved dm prefix", "dm-alice_bob", false},
		{"control character", "bad\nname", false},
		{"at limit", strings.Repeat("a", MaxChannelNameLength), true},
		{"over limit", strings.Repeat("a", MaxChannelNameLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidChannelName(tt.input))
		})
	}
}
