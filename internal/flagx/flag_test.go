package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-db", "todos.db", "-mode", "remote"}, []string{"-db"}, []string{"-db", "todos.db"}},
		{"equals form", []string{"-auth=basic", "-a", "localhost"}, []string{"-auth"}, []string{"-auth=basic"}},
		{"order preserved", []string{"-auth=basic", "-db", "x.db", "-i", "5"}, []string{"-auth", "-db"}, []string{"-auth=basic", "-db", "x.db"}},
		{"unknown ignored", []string{"-x", "1", "-y=2", "positional"}, []string{"-c"}, []string{}},
		{"flag at end without value", []string{"-c"}, []string{"-c"}, []string{"-c"}},
		{"next flag is not a value", []string{"-c", "-mode", "local"}, []string{"-c"}, []string{"-c"}},
		{"value starting with dash in equals form", []string{"-config=-odd.json"}, []string{"-config"}, []string{"-config=-odd.json"}},
		{"empty", []string{}, []string{"-c"}, []string{}},
		{"repeated", []string{"-c", "one.json", "-c", "two.json"}, []string{"-c"}, []string{"-c", "one.json", "-c", "two.json"}},
		{"bare positional equals sign", []string{"a=b", "-c", "x.json"}, []string{"-c"}, []string{"-c", "x.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/todo.json", ConfigPath([]string{"-c", "/etc/todo.json"}))
	assert.Equal(t, "/etc/todo.json", ConfigPath([]string{"-config=/etc/todo.json", "-a", ":8080"}))
	assert.Equal(t, "2.json", ConfigPath([]string{"-c", "1.json", "-config", "2.json"}))
	assert.Empty(t, ConfigPath([]string{"-a", ":8080", "-auth", "basic"}))
	assert.Empty(t, ConfigPath(nil))
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"todo", "-mode", "remote", "-c", "client.json"}
	assert.Equal(t, "client.json", JsonConfigFlags())
}
