// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/matt-FFFFFF/childproc/spawn"
	"github.com/zclconf/go-cty/cty"
)

// hclFile is the HCL document. Expressions can read environment variables as env.NAME.
//
//	name = "build"
//	mode = "parallel"
//
//	options {
//	  env = { GOFLAGS = "-mod=mod" }
//	}
//
//	command "vet" {
//	  run = "go vet ./..."
//	}
//
//	command "test" {
//	  command = "go"
//	  args    = ["test", "./..."]
//	  options {
//	    cwd = "${env.HOME}/src"
//	  }
//	}
type hclFile struct {
	Name     string        `hcl:"name,optional"`
	Mode     string        `hcl:"mode,optional"`
	Capture  bool          `hcl:"capture,optional"`
	Options  *hclOptions   `hcl:"options,block"`
	Commands []*hclCommand `hcl:"command,block"`
}

type hclOptions struct {
	Cwd   string            `hcl:"cwd,optional"`
	Env   map[string]string `hcl:"env,optional"`
	Stdio hcl.Expression    `hcl:"stdio,optional"`
	Quiet bool              `hcl:"quiet,optional"`
	Shell string            `hcl:"shell,optional"`
	Split bool              `hcl:"split,optional"`
}

type hclCommand struct {
	Name    string      `hcl:"name,label"`
	Run     string      `hcl:"run,optional"`
	Command string      `hcl:"command,optional"`
	Args    []string    `hcl:"args,optional"`
	Options *hclOptions `hcl:"options,block"`
}

func parseHCL(filename string, data []byte) (*Plan, error) {
	file, diags := hclsyntax.ParseConfig(data, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Join(ErrParsePlan, multierror.Append(nil, diags.Errs()...))
	}

	evalCtx := evalContext()

	var doc hclFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &doc); diags.HasErrors() {
		return nil, errors.Join(ErrParsePlan, multierror.Append(nil, diags.Errs()...))
	}

	p := &Plan{
		Name:    doc.Name,
		Mode:    Mode(doc.Mode),
		Capture: doc.Capture,
	}

	var err error

	if doc.Options != nil {
		opts, oerr := doc.Options.decode(evalCtx)
		if oerr != nil {
			err = multierror.Append(err, fmt.Errorf("options: %w", oerr))
		}

		p.Options = opts
	}

	for i, c := range doc.Commands {
		inv, cerr := invocation(c.Run, c.Command, c.Args)
		if cerr == nil && c.Options != nil {
			inv.Options, cerr = c.Options.decode(evalCtx)
		}

		if cerr != nil {
			err = multierror.Append(err, fmt.Errorf("%w %d (%s): %w", ErrInvalidCommand, i, c.Name, cerr))
			continue
		}

		t := spawn.Command{Invocation: inv}
		p.Tasks = append(p.Tasks, t)
		p.Labels = append(p.Labels, label(t, c.Name))
	}

	if err != nil {
		return nil, errors.Join(ErrParsePlan, err)
	}

	return p, nil
}

func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclsyntax.ValidIdentifier(k) {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func (o *hclOptions) decode(evalCtx *hcl.EvalContext) (spawn.Options, error) {
	stdio, err := stdioValue(o.Stdio, evalCtx)
	if err != nil {
		return spawn.Options{}, err
	}

	routing, err := spawn.ParseStdio(stdio)
	if err != nil {
		return spawn.Options{}, err //nolint:wrapcheck
	}

	return spawn.Options{
		Cwd:   o.Cwd,
		Env:   o.Env,
		Stdio: routing,
		Quiet: o.Quiet,
		Shell: o.Shell,
		Split: o.Split,
	}, nil
}

// stdioValue evaluates the stdio attribute into the shapes spawn.ParseStdio accepts.
func stdioValue(expr hcl.Expression, evalCtx *hcl.EvalContext) (any, error) {
	if expr == nil {
		return nil, nil
	}

	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, multierror.Append(nil, diags.Errs()...)
	}

	if v.IsNull() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty.IsTupleType() || ty.IsListType():
		var out []any

		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()

			switch {
			case el.IsNull():
				out = append(out, nil)
			case el.Type() == cty.String:
				out = append(out, el.AsString())
			case el.Type() == cty.Number:
				n, _ := el.AsBigFloat().Int64()
				out = append(out, n)
			default:
				return nil, fmt.Errorf("stdio entries must be strings or numbers, got %s", el.Type().FriendlyName())
			}
		}

		return out, nil
	}

	return nil, fmt.Errorf("stdio must be a string or a list, got %s", ty.FriendlyName())
}
