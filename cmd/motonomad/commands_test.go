package main

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"motonomad-hq/gateway/internal/gatewaytest"
	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/tripplanner"
)

func TestRunModels(t *testing.T) {
	env := newTestCLI(t, "")
	env.server.Enqueue(modelsPath, gatewaytest.Response{
		Body: gatewaytest.ModelsBody("openai/gpt-4o", "google/gemma-3-27b-it:free", "google/gemini-pro"),
	})

	modelsFlags.search = "GOOGLE"
	modelsFlags.watch = false
	t.Cleanup(func() { modelsFlags.search = "" })

	cmd, out := newTestCommand("")
	if err := runModels(cmd, nil); err != nil {
		t.Fatalf("runModels() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "ID") || !strings.Contains(got, "CONTEXT") {
		t.Errorf("missing table header:\n%s", got)
	}
	if !strings.Contains(got, "google/gemini-pro") || !strings.Contains(got, "google/gemma-3-27b-it:free") {
		t.Errorf("missing matching models:\n%s", got)
	}
	if strings.Contains(got, "openai/gpt-4o") {
		t.Errorf("unexpected non-matching model:\n%s", got)
	}
	if strings.Index(got, "google/gemini-pro") > strings.Index(got, "google/gemma-3-27b-it:free") {
		t.Errorf("models should be sorted by ID:\n%s", got)
	}
}

func TestRunModels_JSON(t *testing.T) {
	env := newTestCLI(t, "")
	env.server.Enqueue(modelsPath, gatewaytest.Response{Body: gatewaytest.ModelsBody("a/one", "b/two")})
	outputFormat = "json"

	cmd, out := newTestCommand("")
	if err := runModels(cmd, nil); err != nil {
		t.Fatalf("runModels() error = %v", err)
	}

	var models []map[string]any
	if err := json.Unmarshal(out.Bytes(), &models); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(models) != 2 || models[0]["id"] != "a/one" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestRunValidateKey(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		env := newTestCLI(t, "")
		env.server.Enqueue(completionsPath, okCompletion("ok"))

		cmd, out := newTestCommand("")
		if err := runValidateKey(cmd, []string{"sk-or-v1-other"}); err != nil {
			t.Fatalf("runValidateKey() error = %v", err)
		}
		if !strings.Contains(out.String(), "is valid") {
			t.Errorf("output = %q", out.String())
		}

		req, _ := env.server.LastRequest()
		if got := req.Header.Get("Authorization"); got != "Bearer sk-or-v1-other" {
			t.Errorf("probe should use the given key, Authorization = %q", got)
		}
		if strings.Contains(out.String(), "sk-or-v1-other") {
			t.Error("key should be masked in output")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		env := newTestCLI(t, "")
		env.server.Enqueue(completionsPath, gatewaytest.Response{
			StatusCode: 401,
			Body:       gatewaytest.ErrorBody(401, "bad key"),
		})

		cmd, _ := newTestCommand("")
		err := runValidateKey(cmd, nil)
		if got := cli.ExitCode(err); got != cli.ExitAuth {
			t.Errorf("ExitCode() = %d, want %d", got, cli.ExitAuth)
		}

		req, _ := env.server.LastRequest()
		if got := req.Header.Get("Authorization"); got != "Bearer "+testKey {
			t.Errorf("probe should default to the configured key, Authorization = %q", got)
		}
	})
}

func setSuggestFlags(t *testing.T, name, start, end, transport string) {
	t.Helper()
	orig := suggestFlags
	suggestFlags.name, suggestFlags.start, suggestFlags.end = name, start, end
	suggestFlags.transport, suggestFlags.model = transport, ""
	t.Cleanup(func() { suggestFlags = orig })
}

func TestTripFromFlags(t *testing.T) {
	tests := []struct {
		name      string
		trip      string
		start     string
		end       string
		transport string
		wantErr   string
	}{
		{name: "valid", trip: "Alpy", start: "2025-06-01", end: "2025-06-07", transport: "motorcycle"},
		{name: "upper case transport", trip: "Alpy", start: "2025-06-01", end: "2025-06-01", transport: "TRAIN"},
		{name: "missing name", trip: " ", start: "2025-06-01", end: "2025-06-07", transport: "car", wantErr: "name"},
		{name: "bad start", trip: "Alpy", start: "01.06.2025", end: "2025-06-07", transport: "car", wantErr: "start"},
		{name: "bad end", trip: "Alpy", start: "2025-06-01", end: "", transport: "car", wantErr: "end"},
		{name: "end before start", trip: "Alpy", start: "2025-06-07", end: "2025-06-01", transport: "car", wantErr: "before"},
		{name: "unknown transport", trip: "Alpy", start: "2025-06-01", end: "2025-06-07", transport: "bicycle", wantErr: "transport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSuggestFlags(t, tt.trip, tt.start, tt.end, tt.transport)

			trip, err := tripFromFlags()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("tripFromFlags() error = %v, want containing %q", err, tt.wantErr)
				}
				if cli.ExitCode(err) != cli.ExitConfig {
					t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
				}
				return
			}
			if err != nil {
				t.Fatalf("tripFromFlags() error = %v", err)
			}
			if trip.StartDate.After(trip.EndDate) {
				t.Error("start after end")
			}
		})
	}
}

func TestRunSuggest(t *testing.T) {
	env := newTestCLI(t, "")
	env.server.Enqueue(completionsPath, okCompletion("OPIS:\nPiękna trasa przez przełęcze.\nATRAKCJE:\n- Grossglockner\n- Jezioro Bled"))
	setSuggestFlags(t, "Alpy", "2025-06-01", "2025-06-07", "motorcycle")

	cmd, out := newTestCommand("")
	if err := runSuggest(cmd, nil); err != nil {
		t.Fatalf("runSuggest() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"Alpy (7 dni)", "Piękna trasa przez przełęcze.", "1. Grossglockner", "2. Jezioro Bled"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	req, _ := env.server.LastRequest()
	body := string(req.Body)
	if !strings.Contains(body, `"model":"test/planner"`) {
		t.Errorf("request should use the planner model: %s", body)
	}
	if !strings.Contains(body, "01.06.2025") || !strings.Contains(body, string(tripplanner.TransportMotorcycle)) {
		t.Errorf("prompt missing trip details: %s", body)
	}
}

func TestUsageCommands(t *testing.T) {
	env := newTestCLI(t, "")
	env.server.Enqueue(completionsPath, okCompletion("one"), okCompletion("two"))

	completeFlags = completionFlags{temperature: -1}
	t.Cleanup(func() { completeFlags = completionFlags{} })

	for range 2 {
		cmd, _ := newTestCommand("")
		if err := runComplete(cmd, []string{"hi"}); err != nil {
			t.Fatalf("runComplete() error = %v", err)
		}
	}

	t.Run("list", func(t *testing.T) {
		orig := usageFlags
		usageFlags.limit = 10
		usageFlags.listSince = 0
		t.Cleanup(func() { usageFlags = orig })

		cmd, out := newTestCommand("")
		if err := runUsageList(cmd, nil); err != nil {
			t.Fatalf("runUsageList() error = %v", err)
		}
		if got := strings.Count(out.String(), "test/model"); got != 2 {
			t.Errorf("listed %d records, want 2:\n%s", got, out.String())
		}
	})

	t.Run("summary", func(t *testing.T) {
		orig := usageFlags
		usageFlags.summarySince = time.Hour
		t.Cleanup(func() { usageFlags = orig })

		cmd, out := newTestCommand("")
		if err := runUsageSummary(cmd, nil); err != nil {
			t.Fatalf("runUsageSummary() error = %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "Calls:       2 (2 succeeded, 0 failed)") {
			t.Errorf("unexpected summary:\n%s", got)
		}
		if !strings.Contains(got, "Tokens:      60") {
			t.Errorf("unexpected token total:\n%s", got)
		}
	})

	t.Run("prune keeps recent records", func(t *testing.T) {
		cmd, out := newTestCommand("")
		if err := runUsagePrune(cmd, nil); err != nil {
			t.Fatalf("runUsagePrune() error = %v", err)
		}
		if !strings.Contains(out.String(), "Pruned 0 records") {
			t.Errorf("output = %q", out.String())
		}
	})
}

func TestUsageDisabled(t *testing.T) {
	newTestCLI(t, "")
	t.Setenv("MOTONOMAD_USAGE_DISABLED", "true")

	cmd, _ := newTestCommand("")
	err := runUsageSummary(cmd, nil)
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitConfig)
	}
}

func TestRunConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		newTestCLI(t, "")

		cmd, out := newTestCommand("")
		if err := runConfigValidate(cmd, nil); err != nil {
			t.Fatalf("runConfigValidate() error = %v", err)
		}
		if got := out.String(); got != "Configuration is valid.\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("placeholder key warns", func(t *testing.T) {
		newTestCLI(t, "")
		t.Setenv("MOTONOMAD_GATEWAY_API_KEY", "your-api-key-here")

		cmd, out := newTestCommand("")
		if err := runConfigValidate(cmd, nil); err != nil {
			t.Fatalf("runConfigValidate() error = %v", err)
		}
		if !strings.Contains(out.String(), "warning: gateway.api_key") {
			t.Errorf("expected api key warning:\n%s", out.String())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		env := newTestCLI(t, "")
		if err := os.WriteFile(env.cfgPath, []byte("gateway:\n  mode: sideways\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		cmd, _ := newTestCommand("")
		err := runConfigValidate(cmd, nil)
		if cli.ExitCode(err) != cli.ExitConfig {
			t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitConfig)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		env := newTestCLI(t, "")
		cfgFile = env.dir + "/absent.yaml"

		cmd, _ := newTestCommand("")
		err := runConfigValidate(cmd, nil)
		if cli.ExitCode(err) != cli.ExitConfig {
			t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitConfig)
		}
	})
}

func TestRunConfigShow(t *testing.T) {
	newTestCLI(t, "")

	cmd, out := newTestCommand("")
	if err := runConfigShow(cmd, nil); err != nil {
		t.Fatalf("runConfigShow() error = %v", err)
	}

	got := out.String()
	if strings.Contains(got, testKey) {
		t.Error("api key should be masked")
	}
	for _, want := range []string{"sk-o***", "default_model: test/model", "timeout: 1m0s"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
