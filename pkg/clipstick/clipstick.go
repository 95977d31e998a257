// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clipstick parses command-line arguments into a typed schema.
//
// A schema is a tree of Go struct types. Fields without a `default` tag are
// positional arguments, fields with one (or of pointer type) are --flags,
// and a field of a registered interface type selects a subcommand:
//
//	type Action interface{ isAction() }
//
//	type App struct {
//	    Verbose bool `default:"false" help:"Log more."`
//	    Cmd     Action
//	}
//
//	type Deploy struct {
//	    Target string `help:"Service to deploy."`
//	    Region string `default:"us" env:"DEPLOY_REGION"`
//	}
//
//	func (Deploy) isAction() {}
//
//	reg := schema.NewRegistry()
//	schema.Union[Action](reg, Deploy{})
//	app := clipstick.Main[App](clipstick.WithRegistry(reg))
//
// accepts "app deploy web --region eu --verbose".
package clipstick

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fatih/color"
	"github.com/yeetrun/clipstick/pkg/clierr"
	"github.com/yeetrun/clipstick/pkg/grammar"
	"github.com/yeetrun/clipstick/pkg/help"
	"github.com/yeetrun/clipstick/pkg/instance"
	"github.com/yeetrun/clipstick/pkg/match"
	"github.com/yeetrun/clipstick/pkg/schema"
	"tailscale.com/types/lazy"
)

// DefaultName is the program name used when none is given.
const DefaultName = "my-cli-app"

var osExit = os.Exit

type options struct {
	reg      *schema.Registry
	name     string
	defaults grammar.Overrides
	logger   *log.Logger
	stdout   io.Writer
	stderr   io.Writer
	color    *bool
}

// Option configures a Parser.
type Option func(*options)

// WithRegistry sets the registry of subcommand unions.
func WithRegistry(reg *schema.Registry) Option {
	return func(o *options) { o.reg = reg }
}

// WithName sets the program name shown in help and errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDefaults replaces flag defaults, typically with a *config.Defaults.
// Variables named by `env` tags still take precedence.
func WithDefaults(d grammar.Overrides) Option {
	return func(o *options) { o.defaults = d }
}

// WithLogger traces grammar building and token matching to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where Run writes help and errors. The defaults are
// os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithColor forces colour on or off. By default colour is used when stdout
// is a terminal; see help.ColorFor.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = &enabled }
}

// Parser parses arguments into values of schema type T. The grammar is
// derived once, on first use, including default overrides from config and
// the environment. A Parser is safe for concurrent use.
type Parser[T any] struct {
	opts    options
	grammar lazy.SyncValue[*grammar.Command]
}

// New returns a Parser for T, which must be a struct type or a pointer to
// one.
func New[T any](opts ...Option) *Parser[T] {
	p := &Parser[T]{opts: options{
		name:   DefaultName,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// Command returns the grammar of T.
func (p *Parser[T]) Command() (*grammar.Command, error) {
	return p.grammar.GetErr(func() (*grammar.Command, error) {
		return grammar.Build(reflect.TypeFor[T](), p.opts.reg, p.opts.name, grammar.Options{
			Overrides: p.opts.defaults,
			Logger:    p.opts.logger,
		})
	})
}

// Parse matches args, which exclude the program name, and returns the
// resulting value. A help request is returned as a *clierr.HelpRequested.
func (p *Parser[T]) Parse(args []string) (T, error) {
	var zero T
	cmd, err := p.Command()
	if err != nil {
		return zero, err
	}
	cur := match.NewCursor(args)
	m := match.Matcher{Logger: p.opts.logger}
	tree, err := m.Match(cmd, cur)
	if err != nil {
		return zero, err
	}
	if err := match.Finish(cur, tree.Leaf().Command); err != nil {
		return zero, err
	}
	v, err := instance.Instantiate(tree)
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// Tokens returns the shortest argument list that Parse turns back into v.
func (p *Parser[T]) Tokens(v T) ([]string, error) {
	cmd, err := p.Command()
	if err != nil {
		return nil, err
	}
	return instance.Render(cmd, reflect.ValueOf(v))
}

// Help returns the help text of the command at path, which excludes the
// program name.
func (p *Parser[T]) Help(path ...string) (string, error) {
	cmd, chain, err := p.lookup(path)
	if err != nil {
		return "", err
	}
	return help.String(cmd, help.Options{Color: p.color(), Inherited: chain}), nil
}

func (p *Parser[T]) lookup(path []string) (*grammar.Command, []*grammar.Command, error) {
	root, err := p.Command()
	if err != nil {
		return nil, nil, err
	}
	var chain []*grammar.Command
	cmd := root
	for _, name := range path {
		next, ok := cmd.Child(name)
		if !ok {
			return nil, nil, &clierr.UnknownSubcommandError{Name: name, Command: cmd.DisplayName, Valid: cmd.VariantNames()}
		}
		chain = append(chain, cmd)
		cmd = next
	}
	return cmd, chain, nil
}

func (p *Parser[T]) color() bool {
	if p.opts.color != nil {
		return *p.opts.color
	}
	if f, ok := p.opts.stdout.(*os.File); ok {
		return help.ColorFor(f)
	}
	return false
}

// Run parses args and reports the outcome the way a command-line tool
// would: help goes to stdout, errors go to stderr followed by a hint. It
// returns the parsed value and the process exit code; the value is only
// meaningful when ok is true.
func (p *Parser[T]) Run(args []string) (v T, code int, ok bool) {
	v, err := p.Parse(args)
	if err == nil {
		return v, clierr.ExitSuccess, true
	}

	var h *clierr.HelpRequested
	if errors.As(err, &h) {
		cmd, chain, herr := p.lookup(h.Path)
		if herr == nil {
			herr = help.Render(p.opts.stdout, cmd, help.Options{Color: p.color(), Inherited: chain})
		}
		if herr == nil {
			return v, clierr.ExitSuccess, false
		}
		err = herr
	}

	red := color.New(color.FgRed)
	if p.color() {
		red.EnableColor()
	} else {
		red.DisableColor()
	}
	fmt.Fprintln(p.opts.stderr, red.Sprint("error: "+err.Error()))
	var se *clierr.SchemaError
	if !errors.As(err, &se) {
		fmt.Fprintf(p.opts.stderr, "Try '%s --help' for more information.\n", commandOf(err, p.opts.name))
	}
	return v, clierr.ExitCode(err), false
}

// commandOf returns the display name of the command err was raised in.
func commandOf(err error, fallback string) string {
	var (
		mv *clierr.MissingValueError
		uf *clierr.UnknownFlagError
		us *clierr.UnknownSubcommandError
		ms *clierr.MissingSubcommandError
		ve *clierr.ValidationError
	)
	switch {
	case errors.As(err, &mv):
		return mv.Command
	case errors.As(err, &uf):
		return uf.Command
	case errors.As(err, &us):
		return us.Command
	case errors.As(err, &ms):
		return ms.Command
	case errors.As(err, &ve):
		return ve.Command
	}
	return fallback
}

// Main parses os.Args and returns the value. It exits the process after
// printing help or an error.
func (p *Parser[T]) Main() T {
	v, code, ok := p.Run(os.Args[1:])
	if !ok {
		osExit(code)
	}
	return v
}

// Parse parses args into a T. See Parser.Parse.
func Parse[T any](args []string, opts ...Option) (T, error) {
	return New[T](opts...).Parse(args)
}

// Main parses os.Args into a T, exiting on help or error. The program name
// defaults to the base name of os.Args[0].
func Main[T any](opts ...Option) T {
	opts = append([]Option{WithName(filepath.Base(os.Args[0]))}, opts...)
	return New[T](opts...).Main()
}
