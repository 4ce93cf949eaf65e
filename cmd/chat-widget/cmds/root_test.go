package cmds

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/chat-widget/pkg/devserver"
	"github.com/go-go-golems/chat-widget/pkg/widget"
)

func devServer(t *testing.T, s devserver.Settings) string {
	t.Helper()
	srv, err := devserver.NewServer(s, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	prevLogger := log.Logger
	t.Cleanup(func() {
		viper.Reset()
		log.Logger = prevLogger
	})

	cmd, err := NewRootCommand("1.2.3")
	require.NoError(t, err)
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	require.Equal(t, "1.2.3\n", out)
}

func TestAsk(t *testing.T) {
	url := devServer(t, devserver.Settings{})
	out, err := execute(t, "", "ask", "--base-url", url, "is", "this", "thing", "on?")
	require.NoError(t, err)
	require.Equal(t, "You asked: is this thing on?\n", out)
}

func TestAsk_FailureExitsWithError(t *testing.T) {
	url := devServer(t, devserver.Settings{FailEvery: 1})
	out, err := execute(t, "", "ask", "--base-url", url, "hello")
	require.Error(t, err)
	require.Equal(t, widget.ErrorContent+"\n", out)
}

func TestAsk_FailureStillWritesLogFile(t *testing.T) {
	url := devServer(t, devserver.Settings{FailEvery: 1})
	logFile := filepath.Join(t.TempDir(), "widget.log")
	_, err := execute(t, "", "ask", "--base-url", url, "--log-file", logFile, "--log-level", "debug", "hello")
	require.Error(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "configuration loaded")
}

func TestConfigFileFromFlag(t *testing.T) {
	url := devServer(t, devserver.Settings{})
	cfg := filepath.Join(t.TempDir(), "widget.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("base-url: "+url+"\n"), 0o644))

	out, err := execute(t, "", "ask", "--config", cfg, "from the file")
	require.NoError(t, err)
	require.Equal(t, "You asked: from the file\n", out)
}

func TestAsk_RequiresBaseURL(t *testing.T) {
	_, err := execute(t, "", "ask", "hello")
	require.ErrorContains(t, err, "base URL")
}

func TestRun_FallsBackToLineModeWhenPiped(t *testing.T) {
	url := devServer(t, devserver.Settings{})
	out, err := execute(t, "first\nsecond\n", "run", "--base-url", url, "--greeting", "Hey!")
	require.NoError(t, err)
	require.Equal(t,
		"bot: Hey!\n> bot: You asked: first\n> bot: You asked: second\n> ",
		out)
}

func TestRoot_RunsTheWidgetByDefault(t *testing.T) {
	url := devServer(t, devserver.Settings{})
	out, err := execute(t, "hello\n", "--base-url", url, "--mode", "line")
	require.NoError(t, err)
	require.Contains(t, out, "bot: You asked: hello\n")
}
