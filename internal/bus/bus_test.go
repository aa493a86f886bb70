package bus

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func useTempCache(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	return dir
}

func TestPaths(t *testing.T) {
	dir := useTempCache(t)

	sp, err := SockPath()
	if err != nil {
		t.Fatalf("SockPath() error = %v", err)
	}
	if want := filepath.Join(dir, "urduscribe", SockName); sp != want {
		t.Errorf("SockPath() = %s, want %s", sp, want)
	}

	pp, err := PidPath()
	if err != nil {
		t.Fatalf("PidPath() error = %v", err)
	}
	if want := filepath.Join(dir, "urduscribe", PidName); pp != want {
		t.Errorf("PidPath() = %s, want %s", pp, want)
	}
}

func TestPidFile(t *testing.T) {
	useTempCache(t)

	t.Run("no pid file", func(t *testing.T) {
		if err := CheckExistingDaemon(); err != nil {
			t.Errorf("CheckExistingDaemon() error = %v", err)
		}
	})

	t.Run("own pid is detected", func(t *testing.T) {
		if err := CreatePidFile(); err != nil {
			t.Fatalf("CreatePidFile() error = %v", err)
		}
		pp, _ := PidPath()
		data, err := os.ReadFile(pp)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != strconv.Itoa(os.Getpid()) {
			t.Errorf("pid file = %q", data)
		}
		if err := CheckExistingDaemon(); err == nil {
			t.Error("CheckExistingDaemon() should report the running process")
		}
		if err := RemovePidFile(); err != nil {
			t.Errorf("RemovePidFile() error = %v", err)
		}
	})

	t.Run("garbage pid file is stale", func(t *testing.T) {
		pp, _ := PidPath()
		if err := os.WriteFile(pp, []byte("not-a-pid"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := CheckExistingDaemon(); err != nil {
			t.Errorf("CheckExistingDaemon() error = %v", err)
		}
	})
}

func TestSendCommand(t *testing.T) {
	useTempCache(t)

	ln, err := Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		line, _ := bufio.NewReader(c).ReadString('\n')
		c.Write([]byte("ECHO " + string(line[0]) + "\n"))
	}()

	resp, err := SendCommand(CmdStatus)
	if err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if resp != "ECHO s\n" {
		t.Errorf("SendCommand() = %q", resp)
	}
}

func TestSendCommand_NoDaemon(t *testing.T) {
	useTempCache(t)
	if _, err := SendCommand(CmdStatus); err == nil {
		t.Error("SendCommand() should fail without a listener")
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		kv   []string
		line string
	}{
		{"plain", []string{"status", "idle"}, "STATUS status=idle\n"},
		{"empty value", []string{"session", ""}, "STATUS session=\"\"\n"},
		{"spaces", []string{"error", "No microphone found."}, "STATUS error=\"No microphone found.\"\n"},
		{"newlines", []string{"text", "میرا نام\nہے"}, "STATUS text=\"میرا نام\\nہے\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatFields("STATUS", tt.kv...)
			if line != tt.line {
				t.Errorf("FormatFields() = %q, want %q", line, tt.line)
			}
			tag, fields, err := ParseFields(line)
			if err != nil {
				t.Fatalf("ParseFields() error = %v", err)
			}
			if tag != "STATUS" {
				t.Errorf("tag = %q", tag)
			}
			if fields[tt.kv[0]] != tt.kv[1] {
				t.Errorf("fields[%s] = %q, want %q", tt.kv[0], fields[tt.kv[0]], tt.kv[1])
			}
		})
	}

	t.Run("multiple fields", func(t *testing.T) {
		line := FormatFields("STATUS", "status", "active", "error", "a b", "permission", "granted")
		_, fields, err := ParseFields(line)
		if err != nil {
			t.Fatalf("ParseFields() error = %v", err)
		}
		if fields["status"] != "active" || fields["error"] != "a b" || fields["permission"] != "granted" {
			t.Errorf("fields = %v", fields)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, _, err := ParseFields("STATUS novalue\n"); err == nil {
			t.Error("ParseFields() should reject a field without '='")
		}
		if _, _, err := ParseFields("STATUS k=\"open\n"); err == nil {
			t.Error("ParseFields() should reject an unterminated quote")
		}
	})
}
