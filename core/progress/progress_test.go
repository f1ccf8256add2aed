package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		done, total int
		want        int
	}{
		{name: "no total", done: 0, total: 0, want: 0},
		{name: "negative total", done: 1, total: -1, want: 0},
		{name: "nothing done", done: 0, total: 4, want: 0},
		{name: "a third", done: 1, total: 3, want: 33},
		{name: "two thirds rounds up", done: 2, total: 3, want: 67},
		{name: "half", done: 1, total: 2, want: 50},
		{name: "all", done: 5, total: 5, want: 100},
		{name: "more than total", done: 7, total: 5, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.done, tt.total))
		})
	}
}

func Test_label(t *testing.T) {
	assert.Equal(t, "67%", label(67))
	assert.Equal(t, "0%", label(0))
}
