package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Buy Milk.", "add buy milk"},
		{"hey, delete task two!", "delete task 2"},
		{"OK complete the first", "complete the 1"},
		{"hello   restore   three", "restore 3"},
		{"add buy milk, call mom high", "add buy milk, call mom high"},
		{"add buy milk ,, call mom,", "add buy milk, call mom"},
		{", add milk", "add milk"},
		{"edit task ten to walk the dog?", "edit task 10 to walk the dog"},
		{"hey", "hey"},
		{"someone said one; two: three", "someone said 1 2 3"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotentForCommands(t *testing.T) {
	for _, s := range []string{"add buy milk, call mom high", "delete task 2", "show deleted tasks"} {
		assert.Equal(t, s, Normalize(Normalize(s)))
	}
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "delete buy milk call mom", plain("delete buy milk, call mom"))
}
