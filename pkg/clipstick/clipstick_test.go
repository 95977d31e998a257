// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clipstick

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/config"
	"github.com/yeetrun/clipstick/pkg/grammar"
	"github.com/yeetrun/clipstick/pkg/schema"
	"golang.org/x/sync/errgroup"
	"tailscale.com/util/must"
)

type Action interface{ isAction() }
type Job interface{ isJob() }

type App struct {
	Verbose bool   `default:"false" help:"Log more."`
	Profile string `default:"dev" env:"APP_PROFILE"`
	Cmd     Action
}

func (App) Description() string { return "Manage services." }

type Deploy struct {
	Service string
	Version string
	Region  string        `default:"us"`
	Force   bool          `default:"false"`
	Timeout time.Duration `default:"30s"`
	Limit   *int
}

func (Deploy) Description() string { return "Deploy a service." }

type Schedule struct {
	At  string `default:"now"`
	Job Job
}

type Backup struct {
	Target string
	Full   bool `default:"true"`
}

type Prune struct {
	Keep int `default:"7"`
}

func (Deploy) isAction()   {}
func (Schedule) isAction() {}
func (*Backup) isJob()     {}
func (Prune) isJob()       {}

func registry() *schema.Registry {
	reg := schema.NewRegistry()
	schema.Union[Action](reg, Deploy{}, Schedule{})
	schema.Union[Job](reg, &Backup{}, Prune{})
	return reg
}

func newParser(opts ...Option) *Parser[App] {
	return New[App](append([]Option{WithRegistry(registry())}, opts...)...)
}

func TestParse(t *testing.T) {
	p := newParser()
	tests := []struct {
		name string
		args []string
		want App
	}{
		{
			name: "defaults",
			args: []string{"deploy", "api", "1.2.3"},
			want: App{Profile: "dev", Cmd: Deploy{Service: "api", Version: "1.2.3", Region: "us", Timeout: 30 * time.Second}},
		},
		{
			name: "all flags",
			args: []string{"--verbose", "--profile", "prod", "deploy", "api", "1.2.3", "--region", "eu", "--force", "--timeout", "1m", "--limit", "2"},
			want: App{Verbose: true, Profile: "prod", Cmd: Deploy{
				Service: "api", Version: "1.2.3", Region: "eu", Force: true, Timeout: time.Minute, Limit: ptr(2),
			}},
		},
		{
			name: "deep nesting",
			args: []string{"schedule", "--at", "midnight", "backup", "/srv", "--full", "false"},
			want: App{Profile: "dev", Cmd: Schedule{At: "midnight", Job: &Backup{Target: "/srv", Full: false}}},
		},
		{
			name: "ancestor flags after leaf",
			args: []string{"schedule", "prune", "--keep", "3", "--at", "noon", "--verbose"},
			want: App{Verbose: true, Profile: "dev", Cmd: Schedule{At: "noon", Job: Prune{Keep: 3}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.args, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestPositionalOrder(t *testing.T) {
	p := newParser()
	a := must.Get(p.Parse([]string{"deploy", "api", "1.0.0"}))
	b := must.Get(p.Parse([]string{"deploy", "1.0.0", "api"}))
	da, db := a.Cmd.(Deploy), b.Cmd.(Deploy)
	if da.Service != "api" || da.Version != "1.0.0" {
		t.Errorf("Parse(api 1.0.0) = %+v", da)
	}
	if db.Service != "1.0.0" || db.Version != "api" {
		t.Errorf("Parse(1.0.0 api) = %+v", db)
	}
}

func TestFlagOrderIndependence(t *testing.T) {
	p := newParser()
	base := []string{"deploy", "api", "1.0.0"}
	flags := [][]string{{"--region", "eu"}, {"--force"}, {"--limit", "4"}, {"--verbose"}}
	perms := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	var first App
	for i, perm := range perms {
		args := append([]string{}, base...)
		for _, j := range perm {
			args = append(args, flags[j]...)
		}
		got, err := p.Parse(args)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", args, err)
		}
		if i == 0 {
			first = got
			continue
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Errorf("Parse(%q) differs from first permutation (-first +got):\n%s", args, diff)
		}
	}
}

func TestBoolPresenceOnly(t *testing.T) {
	p := newParser()
	got := must.Get(p.Parse([]string{"deploy", "api", "1", "--force"}))
	if !got.Cmd.(Deploy).Force {
		t.Errorf("--force did not set Force")
	}
	got = must.Get(p.Parse([]string{"deploy", "api", "1"}))
	if got.Cmd.(Deploy).Force {
		t.Errorf("Force set without --force")
	}
}

func TestTokensRoundTrip(t *testing.T) {
	p := newParser()
	values := []App{
		{Profile: "dev", Cmd: Deploy{Service: "api", Version: "1", Region: "us", Timeout: 30 * time.Second}},
		{Verbose: true, Profile: "ci", Cmd: Deploy{Service: "x", Version: "2", Region: "eu", Force: true, Timeout: time.Hour, Limit: ptr(0)}},
		{Profile: "dev", Cmd: Schedule{At: "now", Job: &Backup{Target: "/", Full: false}}},
		{Profile: "dev", Cmd: Schedule{At: "later", Job: Prune{Keep: 1}}},
	}
	for _, v := range values {
		tokens, err := p.Tokens(v)
		if err != nil {
			t.Fatalf("Tokens(%+v) error = %v", v, err)
		}
		got, err := p.Parse(tokens)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tokens, err)
		}
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("Parse(Tokens()) mismatch for %q (-want +got):\n%s", tokens, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	p := newParser()
	tests := []struct {
		args   []string
		target any
	}{
		{[]string{"deply"}, new(*clierr.UnknownSubcommandError)},
		{nil, new(*clierr.MissingSubcommandError)},
		{[]string{"deploy", "api", "1", "extra"}, new(*clierr.UnconsumedArgumentsError)},
		{[]string{"deploy", "api", "1", "--nope"}, new(*clierr.UnknownFlagError)},
		{[]string{"deploy", "api"}, new(*clierr.MissingValueError)},
		{[]string{"schedule", "prune", "--keep", "many"}, new(*clierr.TypeCoercionError)},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := p.Parse(tt.args)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded", tt.args)
			}
			if !errors.As(err, tt.target) {
				t.Errorf("Parse(%q) error = %T %v, want %T", tt.args, err, err, reflect.ValueOf(tt.target).Elem().Interface())
			}
			if got := clierr.ExitCode(err); got != clierr.ExitUsage {
				t.Errorf("ExitCode() = %d, want %d", got, clierr.ExitUsage)
			}
		})
	}
}

func TestHelpAtEveryDepth(t *testing.T) {
	p := newParser()
	root := must.Get(p.Command())
	err := root.Walk(func(cmd *grammar.Command) error {
		for _, tok := range []string{"-h", "--help"} {
			args := append(append([]string{}, cmd.Path...), tok)
			_, err := p.Parse(args)
			var h *clierr.HelpRequested
			if !errors.As(err, &h) {
				return fmt.Errorf("Parse(%q) error = %v, want help", args, err)
			}
			if !reflect.DeepEqual(h.Path, cmd.Path) {
				return fmt.Errorf("Parse(%q) help path = %v, want %v", args, h.Path, cmd.Path)
			}
			text, err := p.Help(h.Path...)
			if err != nil {
				return err
			}
			if !strings.Contains(text, cmd.DisplayName) {
				return fmt.Errorf("help for %q does not mention it:\n%s", cmd.DisplayName, text)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("APP_PROFILE", "staging")
	got := must.Get(newParser().Parse([]string{"schedule", "prune"}))
	if got.Profile != "staging" {
		t.Errorf("Profile = %q, want staging", got.Profile)
	}
	got = must.Get(newParser().Parse([]string{"--profile", "prod", "schedule", "prune"}))
	if got.Profile != "prod" {
		t.Errorf("Profile = %q, want prod", got.Profile)
	}
}

func TestConfigOverride(t *testing.T) {
	d := must.Get(config.Parse([]byte(`
profile = "qa"
[schedule]
at = "dawn"
[schedule.prune]
keep = 30
`), config.TOML))
	p := newParser(WithDefaults(d))
	got := must.Get(p.Parse([]string{"schedule", "prune"}))
	want := App{Profile: "qa", Cmd: Schedule{At: "dawn", Job: Prune{Keep: 30}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("APP_PROFILE", "env-wins")
	got = must.Get(newParser(WithDefaults(d)).Parse([]string{"schedule", "prune"}))
	if got.Profile != "env-wins" {
		t.Errorf("Profile = %q, want env-wins", got.Profile)
	}
}

func TestConcurrentParse(t *testing.T) {
	p := newParser()
	var g errgroup.Group
	for i := range 32 {
		g.Go(func() error {
			version := fmt.Sprint(i)
			got, err := p.Parse([]string{"deploy", "svc", version, "--limit", version})
			if err != nil {
				return err
			}
			d := got.Cmd.(Deploy)
			if d.Version != version || *d.Limit != i {
				return fmt.Errorf("goroutine %d got %+v", i, d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		code       int
		ok         bool
		stdout     []string
		stderr     []string
		stderrNone bool
	}{
		{name: "success", args: []string{"schedule", "prune"}, code: 0, ok: true, stderrNone: true},
		{name: "root help", args: []string{"--help"}, code: 0, stdout: []string{"Manage services.", "USAGE:", "deploy", "Deploy a service."}, stderrNone: true},
		{name: "leaf help", args: []string{"deploy", "-h"}, code: 0, stdout: []string{"my-cli-app deploy [OPTIONS] <SERVICE> <VERSION>", "GLOBAL OPTIONS:", "--profile"}, stderrNone: true},
		{name: "unknown subcommand", args: []string{"deplyo"}, code: 1, stderr: []string{`error: unknown subcommand: deplyo (valid: deploy, schedule); did you mean "deploy"?`, "Try 'my-cli-app --help'"}},
		{name: "leaf error hint", args: []string{"schedule", "backup"}, code: 1, stderr: []string{"missing value for target", "Try 'my-cli-app schedule backup --help'"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			p := newParser(WithOutput(&stdout, &stderr), WithColor(false))
			_, code, ok := p.Run(tt.args)
			if code != tt.code || ok != tt.ok {
				t.Errorf("Run() = %d, %v; want %d, %v\nstderr: %s", code, ok, tt.code, tt.ok, stderr.String())
			}
			for _, want := range tt.stdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout.String())
				}
			}
			for _, want := range tt.stderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr missing %q:\n%s", want, stderr.String())
				}
			}
			if tt.stderrNone && stderr.Len() > 0 {
				t.Errorf("unexpected stderr:\n%s", stderr.String())
			}
		})
	}
}

type broken struct {
	A Action
	B Action
}

func TestRunSchemaError(t *testing.T) {
	var stderr bytes.Buffer
	p := New[broken](WithRegistry(registry()), WithOutput(&bytes.Buffer{}, &stderr), WithColor(false))
	_, code, ok := p.Run(nil)
	if ok || code != clierr.ExitSchemaError {
		t.Errorf("Run() = %d, %v; want %d, false", code, ok, clierr.ExitSchemaError)
	}
	if !strings.Contains(stderr.String(), "schema error") || strings.Contains(stderr.String(), "Try ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestMainExits(t *testing.T) {
	oldExit, oldArgs := osExit, os.Args
	t.Cleanup(func() { osExit, os.Args = oldExit, oldArgs })
	var exited []int
	osExit = func(code int) { exited = append(exited, code) }

	os.Args = []string{"/usr/bin/svc", "schedule", "prune", "--keep", "2"}
	got := Main[App](WithRegistry(registry()), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	if len(exited) != 0 {
		t.Fatalf("Main() exited with %v", exited)
	}
	if job := got.Cmd.(Schedule).Job; job != (Prune{Keep: 2}) {
		t.Errorf("Main() job = %+v", job)
	}

	var stderr bytes.Buffer
	os.Args = []string{"/usr/bin/svc", "nope"}
	Main[App](WithRegistry(registry()), WithOutput(&bytes.Buffer{}, &stderr), WithColor(false))
	if !reflect.DeepEqual(exited, []int{1}) {
		t.Errorf("exit codes = %v, want [1]", exited)
	}
	if !strings.Contains(stderr.String(), "Try 'svc --help'") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
