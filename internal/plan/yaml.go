// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/childproc/spawn"
)

// definition is the YAML document.
//
//	name: build
//	mode: series
//	options:
//	  env: {GOFLAGS: -mod=mod}
//	commands:
//	  - go vet ./...
//	  - [go, [test, ./...], {cwd: ./spawn}]
//	  - name: build
//	    command: go
//	    args: [build, ./...]
//	  - name: lint
//	    run: golangci-lint run
type definition struct {
	Name     string         `yaml:"name"`
	Mode     Mode           `yaml:"mode"`
	Capture  bool           `yaml:"capture"`
	Options  map[string]any `yaml:"options"`
	Commands []any          `yaml:"commands"`
}

// commandDefinition is a command entry written as a mapping.
type commandDefinition struct {
	Name    string         `mapstructure:"name"`
	Run     string         `mapstructure:"run"`
	Command string         `mapstructure:"command"`
	Args    []string       `mapstructure:"args"`
	Options map[string]any `mapstructure:"options"`
}

func parseYAML(data []byte) (*Plan, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsePlan, err)
	}

	p := &Plan{
		Name:    def.Name,
		Mode:    def.Mode,
		Capture: def.Capture,
	}

	var err error

	if def.Options != nil {
		opts, oerr := spawn.DecodeOptions(def.Options)
		if oerr != nil {
			err = multierror.Append(err, fmt.Errorf("options: %w", oerr))
		}

		p.Options = opts
	}

	for i, item := range def.Commands {
		t, name, cerr := yamlTask(item)
		if cerr != nil {
			err = multierror.Append(err, fmt.Errorf("%w %d: %w", ErrInvalidCommand, i, cerr))
			continue
		}

		p.Tasks = append(p.Tasks, t)
		p.Labels = append(p.Labels, label(t, name))
	}

	if err != nil {
		return nil, errors.Join(ErrParsePlan, err)
	}

	return p, nil
}

func yamlTask(item any) (spawn.Task, string, error) {
	m, ok := item.(map[string]any)
	if !ok {
		tasks, err := spawn.Tasks(item)
		if err != nil {
			return nil, "", err
		}

		return tasks[0], "", nil
	}

	var cd commandDefinition

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cd,
	})
	if err != nil {
		return nil, "", err //nolint:wrapcheck
	}

	if err := dec.Decode(m); err != nil {
		return nil, "", err //nolint:wrapcheck
	}

	inv, err := invocation(cd.Run, cd.Command, cd.Args)
	if err != nil {
		return nil, "", err
	}

	if cd.Options != nil {
		opts, err := spawn.DecodeOptions(cd.Options)
		if err != nil {
			return nil, "", err //nolint:wrapcheck
		}

		inv.Options = opts
	}

	return spawn.Command{Invocation: inv}, cd.Name, nil
}

// invocation builds a command from either a command line or a program with arguments.
func invocation(run, command string, args []string) (spawn.Invocation, error) {
	switch {
	case run != "" && command != "":
		return spawn.Invocation{}, errors.New("run and command are mutually exclusive")
	case run != "":
		if len(args) > 0 {
			return spawn.Invocation{}, errors.New("args require command, not run")
		}

		return spawn.Cmd(run), nil
	case command != "":
		return spawn.Cmd(command).WithArgs(args...), nil
	}

	return spawn.Invocation{}, errors.New("one of run or command is required")
}
