package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"

	"github.com/riskibarqy/office-pools/internal/platform/logging"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{name: "default one step", args: nil, want: 1},
		{name: "explicit", args: []string{" 3 "}, want: 3},
		{name: "zero", args: []string{"0"}, wantErr: true},
		{name: "not a number", args: []string{"all"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSteps(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.args)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("parseSteps(%v)=%d,%v want=%d", tt.args, got, err, tt.want)
			}
		})
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	if v, err := parseVersion("1771800300"); err != nil || v != 1771800300 {
		t.Fatalf("unexpected version %d err=%v", v, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if _, err := parseTarget("abc"); err == nil {
		t.Fatalf("expected error for non-numeric target")
	}
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", " YES ", "on"} {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", v)
		if !envBool("DB_DISABLE_PREPARED_BINARY_RESULT") {
			t.Fatalf("expected %q to enable the flag", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", v)
		if envBool("DB_DISABLE_PREPARED_BINARY_RESULT") {
			t.Fatalf("expected %q to leave the flag off", v)
		}
	}
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    plan
		wantErr error
	}{
		{name: "up", args: []string{"UP"}, want: plan{action: "up"}},
		{name: "down default", args: []string{"down"}, want: plan{action: "down", steps: 1}},
		{name: "migrate alias", args: []string{"migrate", "1771800200"}, want: plan{action: "goto", target: 1771800200}},
		{name: "force", args: []string{"force", "1771800100"}, want: plan{action: "force", version: 1771800100}},
		{name: "no args", args: nil, wantErr: errUsage},
		{name: "unknown", args: []string{"seed"}, wantErr: errUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePlan(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("parsePlan(%v)=%+v,%v want=%+v", tt.args, got, err, tt.want)
			}
		})
	}

	if _, err := parsePlan([]string{"force"}); err == nil || errors.Is(err, errUsage) {
		t.Fatalf("expected argument error for force without version, got %v", err)
	}
}

type fakeMigrator struct {
	calls   []string
	steps   int
	err     error
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.err
}

func (f *fakeMigrator) Migrate(uint) error {
	f.calls = append(f.calls, "migrate")
	return f.err
}

func (f *fakeMigrator) Force(int) error {
	f.calls = append(f.calls, "force")
	return f.err
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.verErr }

func TestExecute_NoChangeIsSuccess(t *testing.T) {
	m := &fakeMigrator{err: migrate.ErrNoChange}
	if err := execute(m, plan{action: "up"}, logging.NewNop(), &bytes.Buffer{}); err != nil {
		t.Fatalf("expected no-change to succeed, got %v", err)
	}
}

func TestExecute_DownStepsBackwards(t *testing.T) {
	m := &fakeMigrator{}
	if err := execute(m, plan{action: "down", steps: 2}, logging.NewNop(), &bytes.Buffer{}); err != nil {
		t.Fatalf("down: %v", err)
	}
	if m.steps != -2 {
		t.Fatalf("expected -2 steps, got %d", m.steps)
	}
}

func TestExecute_PropagatesFailure(t *testing.T) {
	m := &fakeMigrator{err: errors.New("dirty database version 1771800200")}
	if err := execute(m, plan{action: "goto", target: 1771800300}, logging.NewNop(), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected migrate error")
	}
}

func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	if err := execute(&fakeMigrator{verErr: migrate.ErrNilVersion}, plan{action: "version"}, logging.NewNop(), &out); err != nil {
		t.Fatalf("version: %v", err)
	}
	if out.String() != "version: none\ndirty: false\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := execute(&fakeMigrator{version: 1771800300, dirty: true}, plan{action: "version"}, logging.NewNop(), &out); err != nil {
		t.Fatalf("version: %v", err)
	}
	if out.String() != "version: 1771800300\ndirty: true\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
