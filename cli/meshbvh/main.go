// Package main is the meshbvh command.
package main

import (
	"os"

	"go.viam.com/meshbvh/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		cli.Errorf(app.ErrWriter, "%v", err)
	}
}
