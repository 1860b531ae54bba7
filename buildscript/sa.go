package buildscript

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/craiggwilson/goke/pkg/sh"
	"github.com/craiggwilson/goke/task"
)

// SAModTidy fails if `go mod tidy` would change go.mod or go.sum. The
// original files are restored either way.
func SAModTidy(ctx *task.Context) error {
	files := []string{"go.mod", "go.sum"}
	orig := make(map[string][]byte, len(files))
	for _, name := range files {
		contents, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}
		orig[name] = contents
	}

	if err := sh.Run(ctx, "go", "mod", "tidy"); err != nil {
		return err
	}

	changed := false
	for _, name := range files {
		contents, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}
		if !bytes.Equal(orig[name], contents) {
			changed = true
			_ = os.WriteFile(name, orig[name], 0o600)
		}
	}
	if changed {
		return errors.New("go.mod and/or go.sum needs changes: run `go mod tidy` and commit the changes")
	}
	return nil
}

// SAGoVet runs `go vet` over every package.
func SAGoVet(ctx *task.Context) error {
	output, err := sh.RunOutput(ctx, "go", "vet", "./...")
	if err != nil {
		return fmt.Errorf("error from `go vet`: %s: %w", output, err)
	}
	return nil
}
