//go:build ignore

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/craiggwilson/goke/task"
	"github.com/orcid/sfid-tools/buildscript"
)

var taskRegistry = task.NewRegistry(task.WithAutoNamespaces(true))

func init() {
	taskRegistry.Declare("check:go-version").Description("checks the minimum go version").Do(buildscript.CheckMinimumGoVersion)
	taskRegistry.Declare("build").Description("build the tools").OptionalArgs("tools").DependsOn("check:go-version").Do(buildscript.BuildTools)
	taskRegistry.Declare("test:unit").Description("runs unit tests").OptionalArgs("pkgs").Do(buildscript.TestUnit)
	taskRegistry.Declare("test:integration").Description("runs integration tests").OptionalArgs("pkgs").Do(buildscript.TestIntegration)
	taskRegistry.Declare("sa:modtidy").Description("checks that go.mod and go.sum are tidy").Do(buildscript.SAModTidy)
	taskRegistry.Declare("sa:govet").Description("runs go vet").Do(buildscript.SAGoVet)
}

func main() {
	err := task.Run(taskRegistry, os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
