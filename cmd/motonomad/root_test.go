package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/telemetry/health"
)

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing default file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(defaultEnvFile); err != nil {
			t.Errorf("loadEnvFile() error = %v", err)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
		if cli.ExitCode(err) != cli.ExitConfig {
			t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitConfig)
		}
	})

	t.Run("sets unset variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		content := "MOTONOMAD_TEST_DOTENV_NEW=from-file\nMOTONOMAD_TEST_DOTENV_SET=from-file\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("MOTONOMAD_TEST_DOTENV_SET", "from-env")
		t.Cleanup(func() { os.Unsetenv("MOTONOMAD_TEST_DOTENV_NEW") })

		if err := loadEnvFile(path); err != nil {
			t.Fatalf("loadEnvFile() error = %v", err)
		}
		if got := os.Getenv("MOTONOMAD_TEST_DOTENV_NEW"); got != "from-file" {
			t.Errorf("new variable = %q, want from-file", got)
		}
		if got := os.Getenv("MOTONOMAD_TEST_DOTENV_SET"); got != "from-env" {
			t.Errorf("existing variable = %q, want from-env", got)
		}
	})
}

func TestRootCommandTree(t *testing.T) {
	want := []string{"complete", "stream", "chat", "models", "validate-key", "suggest", "usage", "config", "version", "completion"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered (found %v, err %v)", name, cmd, err)
		}
	}

	for _, flag := range []string{"config", "env-file", "verbose", "output", "metrics-addr"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestOutput_InvalidFormat(t *testing.T) {
	orig := outputFormat
	outputFormat = "yaml"
	t.Cleanup(func() { outputFormat = orig })

	cmd, _ := newTestCommand("")
	if err := output(cmd, modelTable(nil)); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestHealthChecker(t *testing.T) {
	newTestCLI(t, "")
	cmd, _ := newTestCommand("")

	a, err := newApp(cmd)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	checker := a.healthChecker()
	if got := checker.Names(); len(got) != 2 {
		t.Errorf("Names() = %v, want gateway and usage", got)
	}
	if report := checker.Readiness(context.Background()); report.Status != health.StatusReady {
		t.Errorf("Readiness() = %+v, want ready", report)
	}
}
