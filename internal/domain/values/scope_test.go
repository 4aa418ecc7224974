package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Scope_Contains(t *testing.T) {
	tests := []struct {
		name   string
		scope  Scope
		module string
		want   bool
	}{
		{"inside root", NewScope("com.app"), "com.app.Widget", true},
		{"nested package", NewScope("com.app"), "com.app.ui.Button", true},
		{"outside root", NewScope("com.app"), "java.util.List", false},
		{"prefix without separator", NewScope("com.app"), "com.apple.Pie", false},
		{"root itself", NewScope("com.app"), "com.app", false},
		{"empty root covers all", NewScope(""), "java.util.List", true},
		{"empty root covers unnamed package", NewScope(""), "Widget", true},
		{"unset scope covers nothing", Scope{}, "com.app.Widget", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Contains(tt.module))
		})
	}
}

func Test_Scope_ContainsIsStable(t *testing.T) {
	s := NewScope("com.app")
	first := s.Contains("com.app.Widget")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, s.Contains("com.app.Widget"))
	}
	assert.Equal(t, "com.app", s.Root())
}

func Test_Scope_IsSet(t *testing.T) {
	assert.False(t, Scope{}.IsSet())
	assert.True(t, NewScope("").IsSet())
	assert.True(t, NewScope("").IsEverything())
	assert.False(t, NewScope("com.app").IsEverything())
}

func Test_Scope_String(t *testing.T) {
	assert.Equal(t, "<unset>", Scope{}.String())
	assert.Equal(t, "*", NewScope("").String())
	assert.Equal(t, "com.app.*", NewScope("com.app").String())
}
