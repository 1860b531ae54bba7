package buildscript

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/craiggwilson/goke/pkg/git"
	"github.com/craiggwilson/goke/pkg/sh"
	"github.com/craiggwilson/goke/task"
	"github.com/orcid/sfid-tools/common/testtype"
	"golang.org/x/mod/semver"
)

// toolNames lists the packages that have a main/<name>.go entry point.
var toolNames = []string{"findshortids", "manageorgs"}

// pkgNames is a list of the names of all the packages to test.
var pkgNames = append([]string{"common"}, toolNames...)

// minimumGoVersion must be prefixed with v to be parsed by golang.org/x/mod/semver
var minimumGoVersion = "v1.24.0"

func CheckMinimumGoVersion(ctx *task.Context) error {
	goVersionStr, err := runCmd(ctx, "go", "version")
	if err != nil {
		return fmt.Errorf("failed to get current go version: %w", err)
	}

	matches := regexp.MustCompile(`go(\d+\.\d+\.*\d*)`).FindStringSubmatch(goVersionStr)
	if len(matches) < 2 {
		return fmt.Errorf("could not find version string in the output of `go version`: %s", goVersionStr)
	}

	goVersion := "v" + matches[1]
	if semver.Compare(goVersion, minimumGoVersion) < 0 {
		return fmt.Errorf("found Go %s, wanted at least %s", goVersion, minimumGoVersion)
	}
	return nil
}

// BuildTools is an Executor that builds the tools into bin/.
func BuildTools(ctx *task.Context) error {
	for _, tool := range selectedTools(ctx) {
		if err := buildToolBinary(ctx, tool, "bin"); err != nil {
			return err
		}
	}
	return nil
}

// TestUnit is an Executor that runs all unit tests for the provided packages.
func TestUnit(ctx *task.Context) error {
	return runTests(ctx, selectedPkgs(ctx), testtype.UnitTestType)
}

// TestIntegration is an Executor that runs all integration tests for the
// provided packages. Without TOOLS_TESTING_MONGOD the tests start a mongod
// container.
func TestIntegration(ctx *task.Context) error {
	return runTests(ctx, selectedPkgs(ctx), testtype.IntegrationTestType)
}

func buildToolBinary(ctx *task.Context, tool string, outDir string) error {
	outPath := filepath.Join(outDir, tool)
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}
	_ = sh.Remove(ctx, outPath)

	buildFlags, err := getBuildFlags(ctx)
	if err != nil {
		return fmt.Errorf("failed to get build flags: %w", err)
	}

	args := []string{"build", "-o", outPath}
	args = append(args, buildFlags...)
	args = append(args, filepath.Join(tool, "main", tool+".go"))

	cmd := exec.CommandContext(ctx, "go", args...)
	sh.LogCmd(ctx, cmd)
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		_, _ = ctx.Write(output)
	}
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", tool, err)
	}
	return nil
}

// runTests runs the tests of the provided testType for the provided packages.
func runTests(ctx *task.Context, pkgs []string, testType string) error {
	for _, pkg := range pkgs {
		outFile, err := sh.CreateFileR(ctx, fmt.Sprintf("testing_output/%s.suite", pkg))
		if err != nil {
			return fmt.Errorf("failed to create testing output file: %w", err)
		}
		defer outFile.Close()

		args := []string{"test", "./" + pkg + "/..."}
		if ctx.Verbose {
			args = append(args, "-v")
		}

		env := append([]string{}, os.Environ()...)
		env = append(env, testType+"=true")
		if testType != testtype.UnitTestType {
			env = append(env, testtype.UnitTestType+"=false")
		}

		out := io.MultiWriter(ctx, outFile)
		cmd := exec.CommandContext(ctx, "go", args...)
		cmd.Stdout = out
		cmd.Stderr = out
		cmd.Env = env

		if err := sh.RunCmd(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// getBuildFlags stamps the version and commit into each tool's main package.
func getBuildFlags(ctx *task.Context) ([]string, error) {
	versionStr, err := runCmd(ctx, "git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	gitCommit, err := git.SHA1(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit hash: %w", err)
	}

	ldflags := fmt.Sprintf("-X main.VersionStr=%s -X main.GitCommit=%s", versionStr, gitCommit)
	flags := []string{"-ldflags", ldflags}
	if runtime.GOOS == "linux" {
		flags = append(flags, "-buildmode=pie")
	}
	return flags, nil
}

func runCmd(ctx *task.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	sh.LogCmd(ctx, cmd)
	output, err := cmd.CombinedOutput()
	return string(bytes.TrimSpace(output)), err
}

// selectedPkgs gets the packages selected via the -pkgs flag, defaulting to
// every package.
func selectedPkgs(ctx *task.Context) []string {
	if pkgs := ctx.Get("pkgs"); pkgs != "" {
		return strings.Split(pkgs, ",")
	}
	return pkgNames
}

func selectedTools(ctx *task.Context) []string {
	if tools := ctx.Get("tools"); tools != "" {
		return strings.Split(tools, ",")
	}
	return toolNames
}
