// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/virt-netsetup/command"
)

func main() {
	if err := command.Execute(); err != nil {
		// The status envelope was already written.
		if !errors.Is(err, command.ErrFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
