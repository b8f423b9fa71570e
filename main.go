// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/meerpipe/meerlaunch/cmd/meerlaunch"

func main() {
	cmd.Execute()
}
