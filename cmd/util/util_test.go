package util

import (
	"errors"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestLoadMembersFile(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		// order in the file does not matter
		path := writeFile(t, strings.Join([]string{
			"server3=10.0.0.3",
			"server0=10.0.0.0",
			"server1=10.0.0.1",
			"server2=10.0.0.2",
			"# comment",
			"server4=10.0.0.4",
			"server5=10.0.0.5",
			"server6=10.0.0.6",
		}, "\n"))

		members, err := LoadMembersFile(path)
		if err != nil {
			t.Fatalf("LoadMembersFile failed: %v", err)
		}
		for i, m := range members {
			if want := "10.0.0." + string(rune('0'+i)); m != want {
				t.Errorf("member %d: expected %s, got %s", i, want, m)
			}
		}
	})

	tests := map[string]string{
		"Missing":    "server0=a\nserver1=b\nserver2=c\nserver3=d\nserver4=e\nserver5=f",
		"OutOfRange": "server0=a\nserver1=b\nserver2=c\nserver3=d\nserver4=e\nserver5=f\nserver7=g",
		"NoIndex":    "server0=a\nserver1=b\nserver2=c\nserver3=d\nserver4=e\nserver5=f\nserver=g",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMembersFile(writeFile(t, content))
			if !errors.Is(err, cluster.ErrInvalidMembers) {
				t.Errorf("expected ErrInvalidMembers, got %v", err)
			}
		})
	}

	t.Run("NotFound", func(t *testing.T) {
		if _, err := LoadMembersFile(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestGetMembers(t *testing.T) {
	defer viper.Reset()

	viper.Set("members", "a,b,c,d,e,f,/tmp/g.sock")
	viper.Set("port", 4430)
	members, err := GetMembers()
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	if members[0] != "a:4430" || members[6] != "/tmp/g.sock" {
		t.Errorf("unexpected members %v", members)
	}

	viper.Set("members", "a,b,c")
	if _, err := GetMembers(); !errors.Is(err, cluster.ErrInvalidMembers) {
		t.Errorf("expected ErrInvalidMembers, got %v", err)
	}
}

func TestGetSerializerAndTransport(t *testing.T) {
	defer viper.Reset()

	for _, name := range []string{"binary", "native"} {
		viper.Set("serializer", name)
		s, err := GetSerializer()
		if err != nil || s.Name() != name {
			t.Errorf("serializer %s: got %v (%v)", name, s, err)
		}
	}
	viper.Set("serializer", "json")
	if _, err := GetSerializer(); err == nil {
		t.Error("expected error for unsupported serializer")
	}

	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		if _, err := GetTransport(); err != nil {
			t.Errorf("client transport %s: %v", name, err)
		}
		if _, err := GetServerTransport(); err != nil {
			t.Errorf("server transport %s: %v", name, err)
		}
	}
	viper.Set("transport", "http")
	if _, err := GetTransport(); err == nil {
		t.Error("expected error for unsupported transport")
	}
}

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line exceeds %d characters: %q", Wrap, line)
		}
	}
}
