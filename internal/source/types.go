package source

import (
	"path"
	"strings"
)

// RepositoryMetadata is the descriptive information of a repository.
type RepositoryMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	HomeURL     string `json:"html_url"`
}

// EntryKind distinguishes files from directories in a listing.
type EntryKind string

const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "dir"
)

// RemoteEntry is one item of a repository listing.
type RemoteEntry struct {
	Path string
	Name string
	Kind EntryKind
	// ContentLocator is where the raw bytes can be downloaded. Empty for
	// directories and for files the API exposes no download location for.
	ContentLocator string
	Size           int64
}

// IsFile reports whether the entry is a regular file.
func (e RemoteEntry) IsFile() bool { return e.Kind == KindFile }

// Fetchable reports whether the entry is a file with a content locator.
func (e RemoteEntry) Fetchable() bool { return e.IsFile() && e.ContentLocator != "" }

// Extension returns the lower-cased extension of the entry name including the dot.
func (e RemoteEntry) Extension() string {
	return strings.ToLower(path.Ext(e.Name))
}

// RetrievedFile is a remote entry with its content materialized as text.
type RetrievedFile struct {
	Path      string
	Name      string
	Extension string
	Content   string
}

// Retrieved builds a RetrievedFile from an entry and its content.
func Retrieved(e RemoteEntry, content string) RetrievedFile {
	return RetrievedFile{
		Path:      e.Path,
		Name:      e.Name,
		Extension: e.Extension(),
		Content:   content,
	}
}

// BaseName returns the file name without its extension.
func (f RetrievedFile) BaseName() string {
	return strings.TrimSuffix(f.Name, path.Ext(f.Name))
}
