// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix

package spawn

import "os"

func exitSignal(*os.ProcessState) os.Signal {
	return nil
}
