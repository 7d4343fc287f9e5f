package backend

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Export invokes the external Blender binary as a subprocess with a small
// Python driver that writes a glTF binary. The caller's context bounds the
// wall clock; on deadline the process is killed and the job fails instead
// of hanging in processing.
type Export struct {
	// Bin is the Blender executable.
	Bin string
	// Script is the Python driver passed with --python.
	Script string
}

func NewExport(bin, script string) *Export {
	return &Export{Bin: bin, Script: script}
}

func (e *Export) Name() string      { return "export" }
func (e *Export) OutputExt() string { return ".glb" }

func (e *Export) Invoke(ctx context.Context, in Invocation) Outcome {
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return Outcome{Diagnostic: fmt.Sprintf("export mkdir: %v", err)}
	}

	// blender <scene> --background --python <driver> -- <output>
	cmd := exec.CommandContext(ctx, e.Bin,
		in.ScenePath,
		"--background",
		"--python", e.Script,
		"--", in.OutputPath,
	)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	switch {
	case ctx.Err() != nil:
		return Outcome{Diagnostic: fmt.Sprintf("export timed out: %v", ctx.Err())}
	case err != nil:
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return Outcome{Diagnostic: fmt.Sprintf("export exited %d: %s", exitErr.ExitCode(), tail(output.String(), 2000))}
		}
		return Outcome{Diagnostic: fmt.Sprintf("export failed to start: %v", err)}
	}

	// A zero exit is not trusted on its own; the artifact must exist.
	if _, statErr := os.Stat(in.OutputPath); statErr != nil {
		return Outcome{Diagnostic: fmt.Sprintf("export reported success but produced no output at %s: %s", in.OutputPath, tail(output.String(), 2000))}
	}

	return Outcome{OK: true, OutputPath: in.OutputPath}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}
