// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The clipstick-demo command is a pretend deployment client whose entire
// command line is declared by the Root schema below.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/shayne/yargs"
	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/clipstick"
	"github.com/yeetrun/clipstick/pkg/config"
	"github.com/yeetrun/clipstick/pkg/schema"
	"tailscale.com/util/must"
)

// Action is a top-level command.
type Action interface{ isAction() }

// SettingAction is a command of the config group.
type SettingAction interface{ isSetting() }

type Root struct {
	Host    string `default:"localhost:7000" env:"DEMO_HOST" help:"Server to talk to."`
	Verbose bool   `default:"false" help:"Print each request."`
	Cmd     Action
}

func (Root) Description() string { return "Deploy and inspect services." }

type Deploy struct {
	Service  string        `help:"Service to deploy."`
	Version  string        `help:"Semantic version to roll out."`
	Replicas int           `default:"1" help:"Number of instances."`
	Timeout  time.Duration `default:"2m" help:"Give up after this long."`
	Canary   *float64      `help:"Fraction of traffic for the new version."`
}

func (Deploy) Description() string { return "Roll out a version of a service." }

func (d Deploy) Validate() error {
	if _, err := semver.StrictNewVersion(d.Version); err != nil {
		return fmt.Errorf("version %q: %w", d.Version, err)
	}
	if d.Replicas < 1 {
		return errors.New("--replicas must be at least 1")
	}
	if d.Canary != nil && (*d.Canary <= 0 || *d.Canary > 1) {
		return errors.New("--canary must be in (0, 1]")
	}
	return nil
}

type Status struct {
	Service *string `help:"Only show this service."`
	Watch   bool    `default:"false" help:"Keep refreshing."`
}

func (Status) Description() string { return "Show service status." }

type Logs struct {
	Service string         `help:"Service to read logs from."`
	Follow  bool           `default:"false" help:"Stream new lines."`
	Lines   int            `default:"100" help:"Lines of history."`
	Since   *time.Duration `help:"Only lines newer than this."`
}

func (Logs) Description() string { return "Print service logs." }

type Config struct {
	Cmd SettingAction
}

func (Config) Description() string { return "Read and write server settings." }

type Get struct {
	Key string
}

func (Get) Description() string { return "Print a setting." }

type Set struct {
	Key   string
	Value string
	Force bool `default:"false" help:"Overwrite a locked setting."`
}

func (Set) Description() string { return "Change a setting." }

func (Deploy) isAction() {}
func (Status) isAction() {}
func (Logs) isAction()   {}
func (Config) isAction() {}
func (Get) isSetting()   {}
func (*Set) isSetting()  {}

func registry() *schema.Registry {
	reg := schema.NewRegistry()
	schema.Union[Action](reg, Deploy{}, Status{}, Logs{}, Config{})
	schema.Union[SettingAction](reg, Get{}, &Set{})
	return reg
}

// outerFlags are handled before the schema sees the arguments.
type outerFlags struct {
	Defaults      string `flag:"defaults" help:"Load flag defaults from a TOML or YAML file"`
	PrintDefaults string `flag:"print-defaults" help:"Print all defaults as toml or yaml and exit"`
	Trace         bool   `flag:"trace" help:"Trace argument matching to stderr"`
	NoColor       bool   `flag:"no-color" help:"Disable colour"`
}

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	outer, err := yargs.ParseKnownFlags[outerFlags](argv[1:], yargs.KnownFlagsOptions{})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return clierr.ExitUsage
	}
	flags := outer.Flags

	opts := []clipstick.Option{
		clipstick.WithRegistry(registry()),
		clipstick.WithName(filepath.Base(argv[0])),
		clipstick.WithOutput(stdout, stderr),
	}
	if flags.Trace {
		opts = append(opts, clipstick.WithLogger(log.New(stderr, "trace: ", 0)))
	}
	if flags.NoColor {
		opts = append(opts, clipstick.WithColor(false))
	}
	var defaults *config.Defaults
	if flags.Defaults != "" {
		defaults, err = config.Load(flags.Defaults)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return clierr.ExitCode(err)
		}
		opts = append(opts, clipstick.WithDefaults(defaults))
	}

	p := clipstick.New[Root](opts...)
	cmd, err := p.Command()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return clierr.ExitCode(err)
	}
	if err := defaults.Check(cmd); err != nil {
		log.Printf("%s: %v", flags.Defaults, err)
	}
	if flags.PrintDefaults != "" {
		if err := config.Write(stdout, cmd, config.Format(flags.PrintDefaults)); err != nil {
			fmt.Fprintln(stderr, err)
			return clierr.ExitUsage
		}
		return clierr.ExitSuccess
	}

	root, code, ok := p.Run(outer.RemainingArgs)
	if !ok {
		return code
	}
	if root.Verbose {
		tokens := must.Get(p.Tokens(root))
		log.Printf("request to %s: %q", root.Host, tokens)
	}
	describe(stdout, root)
	return clierr.ExitSuccess
}

func describe(w io.Writer, root Root) {
	switch cmd := root.Cmd.(type) {
	case Deploy:
		fmt.Fprintf(w, "deploying %s@%s to %s with %d replica(s), timeout %s", cmd.Service, cmd.Version, root.Host, cmd.Replicas, cmd.Timeout)
		if cmd.Canary != nil {
			fmt.Fprintf(w, ", canary %.0f%%", *cmd.Canary*100)
		}
		fmt.Fprintln(w)
	case Status:
		target := "all services"
		if cmd.Service != nil {
			target = *cmd.Service
		}
		fmt.Fprintf(w, "status of %s on %s (watch=%t)\n", target, root.Host, cmd.Watch)
	case Logs:
		fmt.Fprintf(w, "last %d lines of %s on %s (follow=%t)", cmd.Lines, cmd.Service, root.Host, cmd.Follow)
		if cmd.Since != nil {
			fmt.Fprintf(w, " since %s ago", *cmd.Since)
		}
		fmt.Fprintln(w)
	case Config:
		switch sub := cmd.Cmd.(type) {
		case Get:
			fmt.Fprintf(w, "get %s from %s\n", sub.Key, root.Host)
		case *Set:
			fmt.Fprintf(w, "set %s=%s on %s (force=%t)\n", sub.Key, sub.Value, root.Host, sub.Force)
		}
	}
}
