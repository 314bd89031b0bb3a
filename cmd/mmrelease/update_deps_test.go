package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/mmaksimovic94/mm-test-release/internal/conan"
	"github.com/mmaksimovic94/mm-test-release/internal/depsync"
)

const helloRecipe = `from conan import ConanFile


class HelloWorldConan(ConanFile):
    name = "hello_world"
    version = "1.0.0"
    requires = "fmt/8.1.1", "spdlog/1.9.2"
`

func writeRecipe(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conanfile.py")
	if err := os.WriteFile(path, []byte(helloRecipe), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSyncManifestUpdatesOutdated(t *testing.T) {
	output.NoColor()
	path := writeRecipe(t)
	index := conan.NewMockIndex(map[string][]string{
		"fmt":    {"8.1.1", "9.1.0"},
		"spdlog": {"1.9.2"},
	})
	engine := depsync.NewEngine(index, nil, depsync.Options{Strategy: depsync.StrategyScan})

	var out bytes.Buffer
	code := syncManifest(context.Background(), &out, engine, path, false)
	if code != exitModified {
		t.Fatalf("exit code = %d, want %d", code, exitModified)
	}

	got := readFile(t, path)
	want := strings.Replace(helloRecipe, `"fmt/8.1.1"`, `"fmt/9.1.0"`, 1)
	if got != want {
		t.Errorf("recipe =\n%s\nwant\n%s", got, want)
	}
	if !strings.Contains(out.String(), "fmt: 8.1.1 → 9.1.0") {
		t.Errorf("output should list the edit, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "[current] spdlog/1.9.2") {
		t.Errorf("output should list spdlog as current, got:\n%s", out.String())
	}
}

func TestSyncManifestUpToDate(t *testing.T) {
	path := writeRecipe(t)
	index := conan.NewMockIndex(map[string][]string{
		"fmt":    {"8.1.1"},
		"spdlog": {"1.9.2"},
	})
	engine := depsync.NewEngine(index, nil, depsync.Options{Strategy: depsync.StrategyScan})

	if code := syncManifest(context.Background(), &bytes.Buffer{}, engine, path, false); code != exitUnchanged {
		t.Errorf("exit code = %d, want %d", code, exitUnchanged)
	}
	if readFile(t, path) != helloRecipe {
		t.Error("recipe should be byte-identical")
	}
}

func TestSyncManifestDryRun(t *testing.T) {
	path := writeRecipe(t)
	index := conan.NewMockIndex(map[string][]string{"fmt": {"9.1.0"}, "spdlog": {"1.9.2"}})
	engine := depsync.NewEngine(index, nil, depsync.Options{Strategy: depsync.StrategyScan})

	if code := syncManifest(context.Background(), &bytes.Buffer{}, engine, path, true); code != exitModified {
		t.Errorf("exit code = %d, want %d", code, exitModified)
	}
	if readFile(t, path) != helloRecipe {
		t.Error("dry run must not write the recipe")
	}
}

func TestSyncManifestIndexUnreachable(t *testing.T) {
	output.NoColor()
	path := writeRecipe(t)
	index := conan.NewMockIndex(nil)
	index.Errors["fmt"] = conan.ErrIndexUnavailable
	index.Errors["spdlog"] = conan.ErrIndexUnavailable
	engine := depsync.NewEngine(index, nil, depsync.Options{Strategy: depsync.StrategyScan})

	var out bytes.Buffer
	if code := syncManifest(context.Background(), &out, engine, path, false); code != exitUnchanged {
		t.Errorf("exit code = %d, want %d", code, exitUnchanged)
	}
	if !strings.Contains(out.String(), "[failed] fmt") {
		t.Errorf("output should name the failed package, got:\n%s", out.String())
	}
}

func TestSyncManifestGraphFailure(t *testing.T) {
	path := writeRecipe(t)
	engine := depsync.NewEngine(
		conan.NewMockIndex(map[string][]string{"fmt": {"9.1.0"}}),
		&conan.MockGraphReader{Err: conan.ErrGraphUnavailable},
		depsync.Options{Strategy: depsync.StrategyGraph, ManifestPath: path},
	)

	if code := syncManifest(context.Background(), &bytes.Buffer{}, engine, path, false); code != exitUnchanged {
		t.Errorf("exit code = %d, want %d", code, exitUnchanged)
	}
	if readFile(t, path) != helloRecipe {
		t.Error("recipe must be untouched when the graph cannot be read")
	}
}

func TestSyncManifestMissingRecipe(t *testing.T) {
	engine := depsync.NewEngine(conan.NewMockIndex(nil), nil, depsync.Options{Strategy: depsync.StrategyScan})
	missing := filepath.Join(t.TempDir(), "conanfile.py")
	if code := syncManifest(context.Background(), &bytes.Buffer{}, engine, missing, false); code != exitUnchanged {
		t.Errorf("exit code = %d, want %d", code, exitUnchanged)
	}
}
