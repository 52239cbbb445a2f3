package download

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYTDLP_BuildArgs(t *testing.T) {
	y := NewYTDLP("", []string{"--format", "bestaudio"}, 0)

	assert.Equal(t,
		[]string{"-o", "/tmp/x.%(ext)s", "--quiet", "--no-warnings", "--format", "bestaudio", "--", "https://m/x"},
		y.buildArgs("https://m/x", "/tmp/x.%(ext)s", true))
	assert.Equal(t,
		[]string{"-o", "/tmp/x.%(ext)s", "--format", "bestaudio", "--", "https://m/x"},
		y.buildArgs("https://m/x", "/tmp/x.%(ext)s", false))
}

func TestTemplateStem(t *testing.T) {
	assert.Equal(t, "100%% Vinyl - 2021-2-1", templateStem("100% Vinyl - 2021-2-1"))
	assert.Equal(t, "Plain", templateStem("Plain"))
}

func TestYTDLP_MissingBinary(t *testing.T) {
	y := NewYTDLP("/nonexistent/yt-dlp-binary", nil, time.Second)

	assert.False(t, y.Available())

	err := y.Download(context.Background(), "https://m/x", "/tmp/x.%(ext)s", true)
	var derr *DownloaderError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "https://m/x", derr.Locator)
}

func TestYTDLP_ExitStatus(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}

	assert.True(t, NewYTDLP(truePath, nil, time.Second).Available())
	assert.NoError(t, NewYTDLP(truePath, nil, time.Second).Download(context.Background(), "loc", "out", true))

	err = NewYTDLP(falsePath, nil, time.Second).Download(context.Background(), "loc", "out", true)
	var derr *DownloaderError
	assert.True(t, errors.As(err, &derr))
}

func TestYTDLP_Cancelled(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewYTDLP(truePath, nil, 0).Download(ctx, "loc", "out", true)
	assert.ErrorIs(t, err, context.Canceled)
}
