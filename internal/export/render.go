// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrRendererNotFound is returned when the Graphviz binary is missing.
var ErrRendererNotFound = errors.New("graphviz renderer not found")

// dotBinary is the name of the Graphviz executable looked up in PATH.
const dotBinary = "dot"

//go:generate go tool moq -out renderer_moq.go . Renderer

// Renderer turns a DOT document into an image.
type Renderer interface {
	// Render writes the image of dot in the given format to path.
	Render(ctx context.Context, dot []byte, format, path string) error
}

type graphvizRenderer struct {
	binary   string
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, stdin []byte, path string, args ...string) error
}

// NewRenderer creates a [Renderer] that pipes the document into the
// Graphviz dot binary.
func NewRenderer() Renderer {
	return &graphvizRenderer{
		binary:   dotBinary,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// Render implements [Renderer].
func (r *graphvizRenderer) Render(ctx context.Context, dot []byte, format, path string) error {
	bin, err := r.lookPath(r.binary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRendererNotFound, err)
	}
	if err := r.run(ctx, dot, bin, "-T"+format, "-o", path); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

// runCommand executes the binary with stdin as its standard input.
// The standard error output is attached to a failure.
func runCommand(ctx context.Context, stdin []byte, path string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...) // #nosec G204 // arguments are built by Render
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
