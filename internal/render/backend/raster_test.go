package backend

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func rasterInvoke(t *testing.T, jobID string, timeNorm float64, params map[string]any) []byte {
	t.Helper()

	out := filepath.Join(t.TempDir(), jobID+".png")
	outcome := NewRaster().Invoke(context.Background(), Invocation{
		JobID:      jobID,
		OutputPath: out,
		TimeNorm:   timeNorm,
		Params:     params,
	})
	if !outcome.OK {
		t.Fatalf("invoke failed: %s", outcome.Diagnostic)
	}
	data, err := os.ReadFile(outcome.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return data
}

func TestRasterDeterministic(t *testing.T) {
	a := rasterInvoke(t, "job_abc", 0.42, nil)
	b := rasterInvoke(t, "job_abc", 0.42, nil)
	if !bytes.Equal(a, b) {
		t.Error("same job id and time position should produce identical bytes")
	}

	c := rasterInvoke(t, "job_other", 0.42, nil)
	if bytes.Equal(a, c) {
		t.Error("different job ids should produce different images")
	}

	d := rasterInvoke(t, "job_abc", 0.43, nil)
	if bytes.Equal(a, d) {
		t.Error("different time positions should produce different images")
	}
}

func TestRasterResolution(t *testing.T) {
	tests := []struct {
		name         string
		params       map[string]any
		wantX, wantY int
	}{
		{"defaults", nil, 1280, 720},
		{"explicit", map[string]any{"resolution": map[string]any{"x": 640, "y": 480}}, 640, 480},
		{"clamped low", map[string]any{"resolution": map[string]any{"x": 10, "y": 10}}, 256, 256},
		{"clamped high", map[string]any{"resolution": map[string]any{"x": 4000, "y": 4000}}, 1920, 1080},
		{"json numbers", map[string]any{"resolution": map[string]any{"x": float64(800), "y": float64(600)}}, 800, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := rasterInvoke(t, "job_res", 0.5, tt.params)
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("decoding output: %v", err)
			}
			bounds := img.Bounds()
			if bounds.Dx() != tt.wantX || bounds.Dy() != tt.wantY {
				t.Errorf("resolution = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), tt.wantX, tt.wantY)
			}
		})
	}
}

func TestRasterCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewRaster().Invoke(ctx, Invocation{
		JobID:      "job_canceled",
		OutputPath: filepath.Join(t.TempDir(), "out.png"),
		TimeNorm:   0.5,
	})
	if out.OK {
		t.Error("expected failure for canceled context")
	}
	if out.Diagnostic == "" {
		t.Error("expected a diagnostic")
	}
}
