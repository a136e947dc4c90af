package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/drunlade/go-pap/pap"
	"github.com/drunlade/go-pap/pap/paptest"
)

func runCLI(t *testing.T, srv *paptest.Server, args ...string) (int, string, string) {
	t.Helper()
	full := append([]string{}, args...)
	if srv != nil {
		full = append(full, "-H", srv.Host, "-p", strconv.Itoa(srv.Port), "-u", "alice")
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUploadDownloadList(t *testing.T) {
	root := t.TempDir()
	srv := paptest.NewServer(root)
	defer srv.Close()

	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("hello pap"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, srv, "upload", src, "docs/notes.txt")
	if code != 0 {
		t.Fatalf("upload exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "File uploaded to: docs/notes.txt") {
		t.Errorf("upload stdout = %q", stdout)
	}
	srv.WaitSessions(1)

	code, stdout, stderr = runCLI(t, srv, "list", "docs")
	if code != 0 {
		t.Fatalf("list exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "notes.txt" {
		t.Errorf("list stdout = %q, want notes.txt", stdout)
	}

	dest := t.TempDir()
	code, stdout, stderr = runCLI(t, srv, "download", "docs/notes.txt", "-o", dest)
	if code != 0 {
		t.Fatalf("download exit %d: %s", code, stderr)
	}
	got, err := os.ReadFile(filepath.Join(dest, "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello pap" {
		t.Errorf("downloaded %q", got)
	}
	if !strings.Contains(stdout, "File saved to:") {
		t.Errorf("download stdout = %q", stdout)
	}
}

func TestAliasesAndDefaults(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.bin"), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	srv := paptest.NewServer(root)
	defer srv.Close()

	code, stdout, stderr := runCLI(t, srv, "ls")
	if code != 0 {
		t.Fatalf("ls exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "a.bin" {
		t.Errorf("ls stdout = %q", stdout)
	}

	sessions := srv.WaitSessions(1)
	if sessions[0].Path != "." || sessions[0].Mode != pap.ModeList {
		t.Errorf("session = %+v, want list of \".\"", sessions[0])
	}
}

func TestPositionalModeForm(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "p.txt"), []byte("positional"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := paptest.NewServer(root)
	defer srv.Close()

	dest := t.TempDir()
	code, _, stderr := runCLI(t, srv, "d", "p.txt", "-o", dest)
	if code != 0 {
		t.Fatalf("d exit %d: %s", code, stderr)
	}
	got, err := os.ReadFile(filepath.Join(dest, "p.txt"))
	if err != nil || string(got) != "positional" {
		t.Fatalf("downloaded %q, %v", got, err)
	}

	code, stdout, stderr := runCLI(t, srv, "l")
	if code != 0 {
		t.Fatalf("l exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "p.txt" {
		t.Errorf("l stdout = %q", stdout)
	}

	sessions := srv.WaitSessions(2)
	if sessions[0].Mode != pap.ModeDownload || sessions[1].Mode != pap.ModeList {
		t.Errorf("modes = %v, %v", sessions[0].Mode, sessions[1].Mode)
	}
}

func TestPositionalModeErrors(t *testing.T) {
	srv := paptest.NewServer(t.TempDir())
	defer srv.Close()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown mode", []string{"frob", "x"}, "unknown mode"},
		{"download without path", []string{"d"}, "needs exactly one REMOTE_PATH"},
		{"list with two dirs", []string{"l", "a", "b"}, "at most one REMOTE_DIR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, srv, tt.args...)
			if code != 1 {
				t.Errorf("exit = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want %q", stderr, tt.want)
			}
		})
	}
	if n := srv.Accepted(); n != 0 {
		t.Errorf("server accepted %d connections for rejected command lines", n)
	}
}

func TestQuietSuppressesOutput(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "q.txt"), []byte("quiet"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := paptest.NewServer(root)
	defer srv.Close()

	code, stdout, stderr := runCLI(t, srv, "get", "q.txt", "-o", t.TempDir(), "-q")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != "" || stderr != "" {
		t.Errorf("quiet output: stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestVerboseReportsProgress(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "v.txt"), []byte("verbose body"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := paptest.NewServer(root)
	defer srv.Close()

	code, _, stderr := runCLI(t, srv, "download", "v.txt", "-o", t.TempDir(), "-v")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"Connecting to", "Requesting: v.txt", "Starting: v.txt", "Completed: v.txt (12 bytes"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestErrorsExitNonZero(t *testing.T) {
	srv := paptest.NewServer(t.TempDir())
	defer srv.Close()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing remote", []string{"download", "nope.txt", "-o", t.TempDir()}, "Server reported error"},
		{"missing local", []string{"upload", filepath.Join(t.TempDir(), "absent")}, "File not found"},
		{"bad args", []string{"download"}, "Error:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, srv, tt.args...)
			if code != 1 {
				t.Errorf("exit = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want %q", stderr, tt.want)
			}
		})
	}
}

func TestConnectRefused(t *testing.T) {
	srv := paptest.NewServer(t.TempDir())
	host, port := srv.Host, srv.Port
	srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"list", "-H", host, "-p", strconv.Itoa(port)}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Connection error") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLogFile(t *testing.T) {
	root := t.TempDir()
	srv := paptest.NewServer(root)
	defer srv.Close()

	logPath := filepath.Join(t.TempDir(), "pap.log")
	code, _, stderr := runCLI(t, srv, "list", "--log", logPath)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pap list starting") {
		t.Errorf("log missing start line:\n%s", data)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{pap.NewError(pap.ErrConnectFailure, "refused"), "Connection error"},
		{pap.NewError(pap.ErrTimeout, "slow"), "Connection error"},
		{pap.NewError(pap.ErrRemoteOperationFailed, "status 0x01"), "Server reported error"},
		{pap.NewError(pap.ErrLocalFileNotFound, "x"), "File not found"},
		{pap.NewError(pap.ErrInvalidFrameLength, "0"), "Invalid response"},
		{errors.New("plain"), "Error: plain"},
	}
	for _, tt := range tests {
		if got := describe(tt.err); !strings.HasPrefix(got, tt.want) {
			t.Errorf("describe(%v) = %q, want prefix %q", tt.err, got, tt.want)
		}
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
	}
	for n, want := range tests {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestSSHJumpNeedsCredentials(t *testing.T) {
	t.Setenv("PAP_SSH_PASSWORD", "")
	if isTerminal(os.Stdin) {
		t.Skip("stdin is a terminal")
	}
	code, _, stderr := runCLI(t, nil, "list", "--ssh-jump", "127.0.0.1:1")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "no SSH credentials") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestIOTimeoutOverSSHJumpWarns(t *testing.T) {
	t.Setenv("PAP_SSH_PASSWORD", "")
	if isTerminal(os.Stdin) {
		t.Skip("stdin is a terminal")
	}
	_, _, stderr := runCLI(t, nil, "list", "--ssh-jump", "127.0.0.1:1", "--io-timeout", "5s")
	if !strings.Contains(stderr, "--io-timeout is not enforced through --ssh-jump") {
		t.Errorf("stderr = %q, want deadline warning", stderr)
	}

	_, _, stderr = runCLI(t, nil, "list", "--ssh-jump", "127.0.0.1:1")
	if strings.Contains(stderr, "--io-timeout") {
		t.Errorf("warning printed without --io-timeout: %q", stderr)
	}
}
