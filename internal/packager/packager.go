// Package packager delivers a converted theme: as a directory on disk, as a
// zip archive, or as objects in an S3-compatible bucket. Artifact names and
// bytes are written exactly as produced by the transformer.
package packager

import (
	"context"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// Packager stores an artifact set under a theme name and returns where it
// ended up (a path or URL).
type Packager interface {
	Package(ctx context.Context, name string, artifacts *transform.ArtifactSet) (string, error)
}

// validateName rejects theme names that would escape the output location.
func validateName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" || clean == "." || clean == ".." || strings.ContainsAny(clean, `/\`) {
		return errors.ValidationError("invalid theme directory name").
			WithContext("name", name).
			Build()
	}
	return nil
}

// safeJoin joins rel under root, refusing absolute paths and traversal.
func safeJoin(root, rel string) (string, error) {
	cleanRel := filepath.Clean(rel)
	if rel == "" || filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "..") {
		return "", errors.ValidationError("artifact path must be relative").
			WithContext("path", rel).
			Build()
	}
	full := filepath.Join(root, cleanRel)
	r, err := filepath.Rel(root, full)
	if err != nil || strings.HasPrefix(r, "..") {
		return "", errors.ValidationError("artifact path escapes output directory").
			WithCause(err).
			WithContext("path", rel).
			Build()
	}
	return full, nil
}

func checkArtifacts(artifacts *transform.ArtifactSet) error {
	if artifacts == nil || artifacts.Len() == 0 {
		return errors.PackagingError("no artifacts to package").Build()
	}
	return nil
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Cancelled("packaging", err)
	}
	return nil
}
