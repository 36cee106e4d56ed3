package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/ljpeg.go/pkg/compress/jpegli"
	"github.com/jpfielding/ljpeg.go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "ERROR"))
	err := root.Execute()
	return out.String(), err
}

func synthFile(t *testing.T, extra ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synth.ljpeg")
	_, err := execute(t, append([]string{"synth", "--width", "16", "--height", "8", "-o", path}, extra...)...)
	require.NoError(t, err)
	return path
}

func TestSynthThenInspect(t *testing.T) {
	path := synthFile(t, "--precision", "12", "--predictor", "6")

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)

	var got struct {
		ID    string `json:"id"`
		MD5   string `json:"md5"`
		Frame struct {
			Precision uint8
			Height    uint16
			Width     uint16
		} `json:"frame"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.ID)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, util.Md5ThenHex(data), got.MD5)
	assert.Equal(t, uint8(12), got.Frame.Precision)
	assert.Equal(t, uint16(8), got.Frame.Height)
	assert.Equal(t, uint16(16), got.Frame.Width)
}

func TestInspectText(t *testing.T) {
	path := synthFile(t)
	out, err := execute(t, "inspect", "--format", "text", "-u", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Frame: 16x8, 16 bit, 1 component(s)")
	assert.Contains(t, out, "MD5: ")
}

func TestInspectEmbedded(t *testing.T) {
	data, err := os.ReadFile(synthFile(t))
	require.NoError(t, err)
	wrapped := filepath.Join(t.TempDir(), "wrapped.bin")
	require.NoError(t, os.WriteFile(wrapped, append([]byte("DICM\x00\x01\x02"), data...), 0644))

	_, err = execute(t, "inspect", wrapped)
	require.ErrorIs(t, err, jpegli.ErrNotAnImage)

	_, err = execute(t, "inspect", "--embedded", wrapped)
	require.NoError(t, err)
}

func TestMarkers(t *testing.T) {
	out, err := execute(t, "markers", synthFile(t))
	require.NoError(t, err)
	for _, name := range []string{"SOI", "SOF3", "DHT", "SOS", "ECS", "EOI"} {
		assert.Contains(t, out, name)
	}
}

func TestInspectMissingInput(t *testing.T) {
	_, err := execute(t, "inspect")
	require.Error(t, err)
}

func TestSynthInvalid(t *testing.T) {
	_, err := execute(t, "synth", "--width", "0")
	require.Error(t, err)
}

func TestLogFileClosedAfterRun(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ctl.log")
	out := filepath.Join(t.TempDir(), "synth.ljpeg")
	var buf bytes.Buffer
	root := NewRoot(context.Background(), "test")
	root.SetOut(&buf)
	root.SetArgs([]string{"synth", "-o", out, "--log-file", logFile})
	require.NoError(t, root.Execute())

	slog.Info("after run")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "synthesized")
	assert.NotContains(t, string(data), "after run")
}
