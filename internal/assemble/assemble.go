// Package assemble writes a generated project tree to disk atomically:
// every file is staged under a temporary directory and the whole tree
// is promoted with a single rename, so readers never observe a
// half-written site.
package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// AssemblyError reports a failure while materializing the site.
type AssemblyError struct {
	Path string
	Err  error
}

func (e *AssemblyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("assembly failed: %v", e.Err)
	}
	return fmt.Sprintf("assembly failed at %s: %v", e.Path, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Input is the complete file set for one project.
type Input struct {
	ProjectName string
	Files       map[string]string // relative path -> content
	EnvVars     map[string]string // written to .env.example
}

// Assembler materializes projects under a fixed output root.
type Assembler struct {
	outputRoot string
	logger     *zap.Logger
}

func New(outputRoot string, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{outputRoot: outputRoot, logger: logger}
}

// Assemble stages the file set and promotes it to
// <outputRoot>/<ProjectName>. An existing tree at that path is replaced
// only after the new tree is fully staged; on any error the previous
// tree is left untouched. Returns the final project path.
func (a *Assembler) Assemble(ctx context.Context, input *Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if input.ProjectName == "" {
		return "", &AssemblyError{Err: fmt.Errorf("empty project name")}
	}
	if len(input.Files) == 0 {
		return "", &AssemblyError{Err: fmt.Errorf("no files to assemble")}
	}
	for path := range input.Files {
		if !safeRelPath(path) {
			return "", &AssemblyError{Path: path, Err: fmt.Errorf("unsafe file path")}
		}
	}

	if err := os.MkdirAll(a.outputRoot, 0o755); err != nil {
		return "", &AssemblyError{Path: a.outputRoot, Err: err}
	}

	staging, err := os.MkdirTemp(a.outputRoot, ".staging-")
	if err != nil {
		return "", &AssemblyError{Err: fmt.Errorf("create staging dir: %w", err)}
	}
	defer os.RemoveAll(staging)

	// MkdirTemp creates 0700; the promoted project dir should match its
	// parents.
	if err := os.Chmod(staging, 0o755); err != nil {
		return "", &AssemblyError{Path: staging, Err: err}
	}

	paths := make([]string, 0, len(input.Files))
	for path := range input.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		dst := filepath.Join(staging, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", &AssemblyError{Path: path, Err: err}
		}
		if err := os.WriteFile(dst, []byte(input.Files[path]), 0o644); err != nil {
			return "", &AssemblyError{Path: path, Err: err}
		}
	}

	if len(input.EnvVars) > 0 {
		envPath := filepath.Join(staging, ".env.example")
		if err := os.WriteFile(envPath, []byte(renderEnvExample(input.EnvVars)), 0o644); err != nil {
			return "", &AssemblyError{Path: ".env.example", Err: err}
		}
	}

	// Cancellation is honored up to the promotion point; once the
	// rename starts the swap completes.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	final := filepath.Join(a.outputRoot, input.ProjectName)
	if err := a.promote(staging, final); err != nil {
		return "", err
	}

	a.logger.Info("site assembled",
		zap.String("project", input.ProjectName),
		zap.String("path", final),
		zap.Int("files", len(input.Files)))
	return final, nil
}

// promote swaps the staged tree into place. A previous tree is moved
// aside first and restored if the swap fails.
func (a *Assembler) promote(staging, final string) error {
	var backup string
	if _, err := os.Stat(final); err == nil {
		backup = final + ".previous"
		os.RemoveAll(backup)
		if err := os.Rename(final, backup); err != nil {
			return &AssemblyError{Path: final, Err: fmt.Errorf("move previous tree aside: %w", err)}
		}
	}

	if err := os.Rename(staging, final); err != nil {
		if backup != "" {
			if restoreErr := os.Rename(backup, final); restoreErr != nil {
				a.logger.Error("failed to restore previous tree",
					zap.String("backup", backup), zap.Error(restoreErr))
			}
		}
		return &AssemblyError{Path: final, Err: fmt.Errorf("promote staged tree: %w", err)}
	}

	if backup != "" {
		os.RemoveAll(backup)
	}
	return nil
}

func safeRelPath(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

func renderEnvExample(envVars map[string]string) string {
	keys := make([]string, 0, len(envVars))
	for key := range envVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", key, envVars[key])
	}
	return sb.String()
}
