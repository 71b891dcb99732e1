package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		allowed   []string
		boolFlags []string
		want      []string
	}{
		{
			name:    "separate value kept",
			args:    []string{"-d", "scans.db", "-x", "1"},
			allowed: []string{"-d"},
			want:    []string{"-d", "scans.db"},
		},
		{
			name:    "equals form kept",
			args:    []string{"-g=http://gw.local", "--other=1"},
			allowed: []string{"-g"},
			want:    []string{"-g=http://gw.local"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-x", "1", "-y"},
			allowed: []string{"-d"},
			want:    []string{},
		},
		{
			name:    "flag without value at end is kept as-is",
			args:    []string{"-c"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-i", "5"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:      "bool flag does not swallow the next argument",
			args:      []string{"-v", "positional", "-d", "a.db"},
			allowed:   []string{"-d"},
			boolFlags: []string{"-v"},
			want:      []string{"-v", "-d", "a.db"},
		},
		{
			name:      "bool flag with explicit value",
			args:      []string{"-v=false"},
			boolFlags: []string{"-v"},
			want:      []string{"-v=false"},
		},
		{
			name:    "repeated flag preserved in order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "empty args",
			args:    []string{},
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed, tt.boolFlags...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-config", "/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-g", "http://x", "-v"}))
	})

	t.Run("last wins", func(t *testing.T) {
		assert.Equal(t, "/2.json", ConfigPath([]string{"-c", "/1.json", "-config", "/2.json"}))
	})
}
