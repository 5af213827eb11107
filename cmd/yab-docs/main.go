// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Command yab-docs renders the harness's own cobra usage as markdown,
// grounded on the teacher's GenerateCliDocs helper.
package main

import (
	"fmt"
	"os"

	"github.com/onosproject/yab/pkg/bencher"
	"github.com/onosproject/yab/pkg/cli"
)

func main() {
	root := cli.NewRootCommand(func(*bencher.Bencher) {})
	root.SetArgs([]string{"docs", "docs/cli"})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
