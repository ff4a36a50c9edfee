package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/internal/gatewaytest"
)

const (
	completionsPath = "/chat/completions"
	modelsPath      = "/models"
	testKey         = "sk-or-v1-0123456789abcdef"
)

// testCLI points the global flags at a config file that targets a scripted
// gateway and restores them when the test ends.
type testCLI struct {
	server  *gatewaytest.Server
	dir     string
	cfgPath string
}

func newTestCLI(t *testing.T, extra string) *testCLI {
	t.Helper()

	srv := gatewaytest.NewServer()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`gateway:
  mode: direct
  api_key: %s
  base_url: %s
  max_retries: 1
  min_request_delay: 1ms
  default_model: test/model
telemetry:
  logging:
    level: error
    format: json
usage:
  backend: sqlite
  sqlite_path: %s
planner:
  model: test/planner
%s`, testKey, srv.URL(), filepath.Join(dir, "usage.db"), extra)
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	origCfg, origEnv, origVerbose := cfgFile, envFile, verbose
	origOutput, origMetrics := outputFormat, metricsAddr
	cfgFile, envFile, verbose = cfgPath, "", false
	outputFormat, metricsAddr = "text", ""
	t.Cleanup(func() {
		cfgFile, envFile, verbose = origCfg, origEnv, origVerbose
		outputFormat, metricsAddr = origOutput, origMetrics
	})

	return &testCLI{server: srv, dir: dir, cfgPath: cfgPath}
}

// newTestCommand returns a command whose output is captured in the buffer.
func newTestCommand(input string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetContext(context.Background())
	return cmd, &out
}

func okCompletion(content string) gatewaytest.Response {
	return gatewaytest.Response{Body: gatewaytest.CompletionBody(content, "test/model")}
}
