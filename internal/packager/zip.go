package packager

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path"
	"time"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// zipEpoch is stamped on every entry so identical themes produce identical archives.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Zip writes <Root>/<name>.zip with all artifacts under a top-level <name>/
// folder, the layout WordPress expects for theme uploads.
type Zip struct {
	Root string
}

var _ Packager = Zip{}

// Package writes the archive and returns its path.
func (z Zip) Package(ctx context.Context, name string, artifacts *transform.ArtifactSet) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := checkArtifacts(artifacts); err != nil {
		return "", err
	}
	root := z.Root
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", errors.FileSystemError("create output directory").WithCause(err).WithContext("path", root).Build()
	}
	target, err := safeJoin(root, name+".zip")
	if err != nil {
		return "", err
	}

	// #nosec G304 -- target is validated to stay under root.
	f, err := os.Create(target)
	if err != nil {
		return "", errors.FileSystemError("create archive").WithCause(err).WithContext("path", target).Build()
	}
	if err := WriteZip(ctx, f, name, artifacts); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.FileSystemError("close archive").WithCause(err).WithContext("path", target).Build()
	}
	return target, nil
}

// WriteZip streams the archive of artifacts to w.
func WriteZip(ctx context.Context, w io.Writer, name string, artifacts *transform.ArtifactSet) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := checkArtifacts(artifacts); err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for file, content := range artifacts.All() {
		if err := canceled(ctx); err != nil {
			return err
		}
		hdr := &zip.FileHeader{
			Name:     path.Join(name, file),
			Method:   zip.Deflate,
			Modified: zipEpoch,
		}
		hdr.SetMode(0o644)
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return errors.PackagingError("create archive entry").WithCause(err).WithContext("file", file).Build()
		}
		if _, err := io.WriteString(fw, content); err != nil {
			return errors.PackagingError("write archive entry").WithCause(err).WithContext("file", file).Build()
		}
	}
	if err := zw.Close(); err != nil {
		return errors.PackagingError("finalize archive").WithCause(err).Build()
	}
	return nil
}
