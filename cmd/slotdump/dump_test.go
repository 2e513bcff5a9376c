package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"

	scriptsave "github.com/goliatone/go-scriptsave"
	"github.com/goliatone/go-scriptsave/pkg/jsruntime"
	"github.com/goliatone/go-scriptsave/pkg/registry"
	"github.com/goliatone/go-scriptsave/pkg/savegame"
	"github.com/goliatone/go-scriptsave/pkg/scriptconfig"
	"github.com/goliatone/go-scriptsave/pkg/state"
)

const counterSource = `
var turns = 0;
function Step() { turns++; return turns; }
function Save() { return { turns: turns }; }
`

// writeSavegame stores slot 1 as configured only and slot 3 as a running
// counter@2, then returns the path of the written stream.
func writeSavegame(t *testing.T) string {
	t.Helper()
	reg := registry.New()
	if err := reg.Register(registry.Info{Name: "counter", Version: 2, Source: counterSource}); err != nil {
		t.Fatalf("register: %v", err)
	}
	store, err := state.NewSlotStore(func() scriptsave.Config { return scriptconfig.New(reg) })
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	rt, err := jsruntime.New(store, reg)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	store.GetOrCreate(1).Change("counter", 2, true)
	store.GetOrCreate(3).Change("counter", 2, true)
	store.Start(3)
	if err := rt.Start(3); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rt.Call(3, "Step"); err != nil {
		t.Fatalf("step: %v", err)
	}

	handler, err := scriptsave.NewChunkHandler(store, reg, rt, scriptsave.WithDiagnosticLogger(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	table, err := savegame.NewHandlerTable(handler)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	var buf bytes.Buffer
	if err := table.Save(context.Background(), &buf, savegame.CurrentVersion); err != nil {
		t.Fatalf("save: %v", err)
	}
	path := filepath.Join(t.TempDir(), "game.sav")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func writeScripts(t *testing.T, versions ...int) string {
	t.Helper()
	dir := t.TempDir()
	for _, version := range versions {
		scriptDir := filepath.Join(dir, "counter-"+strconv.Itoa(version))
		if err := os.MkdirAll(scriptDir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		info := `registerScript({ name: "counter", version: ` + strconv.Itoa(version) + ` });`
		if err := os.WriteFile(filepath.Join(scriptDir, "info.js"), []byte(info), 0o600); err != nil {
			t.Fatalf("write info: %v", err)
		}
		if err := os.WriteFile(filepath.Join(scriptDir, "main.js"), []byte(counterSource), 0o600); err != nil {
			t.Fatalf("write main: %v", err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSlotdumpListsSlots(t *testing.T) {
	path := writeSavegame(t)
	out, _, err := execute(t, path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "stream version 340") {
		t.Fatalf("missing stream version in %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected banner, header and two slots, got %q", out)
	}
	if !strings.HasPrefix(lines[2], "1 ") || !strings.Contains(lines[2], "counter@2") || !strings.Contains(lines[2], "unchecked") {
		t.Fatalf("unexpected configured slot row %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "3 ") || strings.Count(lines[3], "counter@2") != 2 {
		t.Fatalf("unexpected running slot row %q", lines[3])
	}
}

func TestSlotdumpFiltersAgainstInstalledScripts(t *testing.T) {
	path := writeSavegame(t)
	scripts := writeScripts(t, 1)

	for _, engine := range []string{"expr", "cel", "js"} {
		t.Run(engine, func(t *testing.T) {
			out, _, err := execute(t, path,
				"--scripts", scripts,
				"--engine", engine,
				"--where", "occupied && !installed(configured.name, configured.version)",
			)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) != 3 || !strings.HasPrefix(lines[2], "3 ") {
				t.Fatalf("expected only slot 3, got %q", out)
			}
			if !strings.Contains(lines[2], "becomes counter@1") {
				t.Fatalf("expected fallback status, got %q", lines[2])
			}
		})
	}
}

func TestSlotdumpJSON(t *testing.T) {
	path := writeSavegame(t)
	out, _, err := execute(t, path, "--json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var decoded dumpOutput
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.StreamVersion != int(savegame.CurrentVersion) || len(decoded.Slots) != 2 {
		t.Fatalf("unexpected output %+v", decoded)
	}
	running := decoded.Slots[1]
	if running.Running == nil || len(running.RunningData) == 0 {
		t.Fatalf("expected running data for slot 3, got %+v", running)
	}
}

func TestSlotdumpErrors(t *testing.T) {
	if _, _, err := execute(t, filepath.Join(t.TempDir(), "missing.sav")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.sav")
	if err := os.WriteFile(bad, []byte("NOPE"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := execute(t, bad); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}

	path := writeSavegame(t)
	if _, _, err := execute(t, path, "--engine", "lua", "--where", "true"); err == nil {
		t.Fatalf("expected unknown engine error")
	}
	if _, _, err := execute(t, path, "--where", "slot"); err == nil {
		t.Fatalf("expected non-boolean rule error")
	}
}
