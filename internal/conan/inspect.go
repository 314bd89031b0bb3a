package conan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
	"github.com/mmaksimovic94/mm-test-release/internal/common/runner"
	"github.com/mmaksimovic94/mm-test-release/internal/manifest"
)

// CLIInspector reads a recipe's version with "conan inspect", falling back
// to the version attribute in the recipe text.
type CLIInspector struct {
	exec runner.Executor
}

// NewInspector creates an inspector using the given conan executor
func NewInspector(exec runner.Executor) *CLIInspector {
	return &CLIInspector{exec: exec}
}

// ProjectVersion returns the version declared by the recipe at manifestPath
func (i *CLIInspector) ProjectVersion(ctx context.Context, manifestPath string) (string, error) {
	v, inspectErr := i.inspect(ctx, manifestPath)
	if inspectErr == nil {
		return v, nil
	}
	logger.Debug("conan inspect failed, reading version attribute: %v", inspectErr)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", errors.Join(ErrVersionUnknown, inspectErr, err)
	}
	if v, ok := manifest.ProjectVersion(string(data)); ok {
		return v, nil
	}
	return "", errors.Join(ErrVersionUnknown, inspectErr)
}

func (i *CLIInspector) inspect(ctx context.Context, manifestPath string) (string, error) {
	result, err := i.exec.Run(ctx, "inspect", manifestPath, "--format=json")
	if err != nil {
		return "", err
	}

	var info struct {
		Version *string `json:"version"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return "", fmt.Errorf("%w: inspect json: %v", ErrMalformedOutput, err)
	}
	if info.Version == nil || *info.Version == "" {
		return "", fmt.Errorf("%w: inspect reported no version", ErrMalformedOutput)
	}
	return *info.Version, nil
}

// Ensure CLIInspector implements Inspector interface
var _ Inspector = (*CLIInspector)(nil)
