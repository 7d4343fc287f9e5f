package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeTool writes a shell script standing in for the Blender binary. The
// output path arrives as the last argument, after the "--" separator.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-blender.sh")
	script := "#!/bin/sh\nfor last; do :; done\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake tool: %v", err)
	}
	return path
}

func exportInvocation(t *testing.T) Invocation {
	t.Helper()
	dir := t.TempDir()
	return Invocation{
		JobID:      "job_export",
		ScenePath:  filepath.Join(dir, "scene.blend"),
		OutputPath: filepath.Join(dir, "out.glb"),
		TimeNorm:   0.5,
	}
}

func TestExportSuccess(t *testing.T) {
	bin := fakeTool(t, `echo "exporting"; printf 'glb-bytes' > "$last"`)
	in := exportInvocation(t)

	out := NewExport(bin, "driver.py").Invoke(context.Background(), in)
	if !out.OK {
		t.Fatalf("invoke failed: %s", out.Diagnostic)
	}
	data, err := os.ReadFile(in.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "glb-bytes" {
		t.Errorf("output = %q, want glb-bytes", data)
	}
}

func TestExportNonZeroExit(t *testing.T) {
	bin := fakeTool(t, `echo "boom: no gpu" >&2; exit 3`)

	out := NewExport(bin, "driver.py").Invoke(context.Background(), exportInvocation(t))
	if out.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.Diagnostic, "exited 3") {
		t.Errorf("diagnostic %q should carry the exit code", out.Diagnostic)
	}
	if !strings.Contains(out.Diagnostic, "boom: no gpu") {
		t.Errorf("diagnostic %q should carry the tool output", out.Diagnostic)
	}
}

func TestExportMissingOutput(t *testing.T) {
	// Zero exit but the artifact was never written.
	bin := fakeTool(t, `echo "looks fine"; exit 0`)

	out := NewExport(bin, "driver.py").Invoke(context.Background(), exportInvocation(t))
	if out.OK {
		t.Fatal("zero exit without an artifact must not pass")
	}
	if !strings.Contains(out.Diagnostic, "produced no output") {
		t.Errorf("diagnostic %q should name the missing output", out.Diagnostic)
	}
}

func TestExportTimeout(t *testing.T) {
	bin := fakeTool(t, `sleep 10`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := NewExport(bin, "driver.py").Invoke(ctx, exportInvocation(t))
	if out.OK {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(out.Diagnostic, "timed out") {
		t.Errorf("diagnostic %q should say timed out", out.Diagnostic)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("invoke took %v, the process was not killed on deadline", elapsed)
	}
}

func TestExportMissingBinary(t *testing.T) {
	out := NewExport(filepath.Join(t.TempDir(), "nope"), "driver.py").Invoke(context.Background(), exportInvocation(t))
	if out.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.Diagnostic, "failed to start") {
		t.Errorf("diagnostic %q should say the tool failed to start", out.Diagnostic)
	}
}
