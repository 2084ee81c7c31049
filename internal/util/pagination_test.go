package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		page, size       int
		wantOff, wantLim int
	}{
		{name: "first page", page: 1, size: 10, wantOff: 0, wantLim: 10},
		{name: "third page", page: 3, size: 10, wantOff: 20, wantLim: 10},
		{name: "page below one", page: 0, size: 5, wantOff: 0, wantLim: 5},
		{name: "default size", page: 2, size: 0, wantOff: DefaultPageSize, wantLim: DefaultPageSize},
		{name: "size capped", page: 1, size: 1000, wantOff: 0, wantLim: MaxPageSize},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			off, lim := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantOff, off)
			assert.Equal(t, tt.wantLim, lim)
		})
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPageSize, Limit(""))
	assert.Equal(t, DefaultPageSize, Limit("abc"))
	assert.Equal(t, DefaultPageSize, Limit("-1"))
	assert.Equal(t, 5, Limit("5"))
	assert.Equal(t, MaxPageSize, Limit("500"))
}
