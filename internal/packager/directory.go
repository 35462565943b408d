package packager

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// Directory writes artifacts into <Root>/<name>/.
type Directory struct {
	Root string
	// Overwrite allows replacing files of an existing theme directory.
	Overwrite bool
}

var _ Packager = Directory{}

// Package writes every artifact and returns the theme directory.
func (d Directory) Package(ctx context.Context, name string, artifacts *transform.ArtifactSet) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := checkArtifacts(artifacts); err != nil {
		return "", err
	}
	root := d.Root
	if root == "" {
		root = "."
	}
	themeDir, err := safeJoin(root, name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(themeDir); err == nil && !d.Overwrite {
		return "", errors.PackagingError("theme directory already exists (use overwrite to replace)").
			WithContext("path", themeDir).
			Build()
	}
	if err := os.MkdirAll(themeDir, 0o750); err != nil {
		return "", errors.FileSystemError("create theme directory").WithCause(err).WithContext("path", themeDir).Build()
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !d.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	for file, content := range artifacts.All() {
		if err := canceled(ctx); err != nil {
			return "", err
		}
		full, err := safeJoin(themeDir, file)
		if err != nil {
			return "", err
		}
		if err := writeFile(full, flags, content); err != nil {
			return "", err
		}
	}
	return themeDir, nil
}

func writeFile(full string, flags int, content string) error {
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.FileSystemError("create artifact directory").WithCause(err).WithContext("path", full).Build()
	}
	// #nosec G304 -- full is validated to stay under the theme directory.
	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return errors.PackagingError("artifact already exists").WithContext("path", full).Build()
		}
		return errors.FileSystemError("write artifact").WithCause(err).WithContext("path", full).Build()
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return errors.FileSystemError("write artifact").WithCause(err).WithContext("path", full).Build()
	}
	if err := f.Close(); err != nil {
		return errors.FileSystemError("close artifact").WithCause(err).WithContext("path", full).Build()
	}
	return nil
}
