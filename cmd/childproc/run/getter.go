// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/plan"
)

// ErrFetchPlan is returned when a remote plan cannot be downloaded.
var ErrFetchPlan = errors.New("failed to fetch plan")

const (
	subdirSeparator = "//"
	querySeparator  = "?"
	minSourceParts  = 3 // scheme, host and the subdirectory holding the plan
)

// fetchPlan loads the plan at src. Local paths are read through plan.FsFactory.
// Any other go-getter source is downloaded into a scratch directory, which is
// removed once the plan has been parsed.
func fetchPlan(ctx context.Context, src string) (*plan.Plan, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: no plan source", ErrFetchPlan)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetchPlan, err)
	}

	req := &getter.Request{Src: src, Pwd: wd, GetMode: getter.ModeDir}

	local, err := getter.Detect(req, &getter.FileGetter{})
	if err != nil {
		return nil, errors.Join(ErrFetchPlan, err)
	}

	if local {
		return plan.Load(ctx, src)
	}

	// go-getter fetches directories, so the plan file is split off the source.
	// https://github.com/hashicorp/go-getter/issues/98
	dir, file := splitPlanSource(src)
	if dir == "" || file == "" {
		return nil, fmt.Errorf("%w: source must name a file after //: %s", ErrFetchPlan, src)
	}

	scratch, err := os.MkdirTemp("", "childproc-plan-*")
	if err != nil {
		return nil, errors.Join(ErrFetchPlan, err)
	}

	defer os.RemoveAll(scratch) //nolint:errcheck

	req.Src = dir
	req.Dst = filepath.Join(scratch, "src")

	ctxlog.Debug(ctx, "fetching plan", "src", dir, "file", file)

	client := getter.Client{DisableSymlinks: true}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrFetchPlan, err)
	}

	return plan.Load(ctx, filepath.Join(res.Dst, file))
}

// splitPlanSource splits a go-getter source into the source of the directory
// holding the plan and the plan's file name. A ref query stays on the directory.
func splitPlanSource(src string) (string, string) {
	parts := strings.Split(src, subdirSeparator)
	if len(parts) < minSourceParts {
		return "", ""
	}

	last, query, _ := strings.Cut(parts[len(parts)-1], querySeparator)

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	file := filepath.Base(last)

	if sub := filepath.Dir(last); sub == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = sub
	}

	dir := strings.Join(parts, subdirSeparator)
	if query != "" {
		dir += querySeparator + query
	}

	return dir, file
}
