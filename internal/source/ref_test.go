package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

func TestRepositoryRef_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ref     RepositoryRef
		wantErr bool
	}{
		{"valid", RepositoryRef{Owner: "acme", Name: "portfolio"}, false},
		{"empty owner", RepositoryRef{Owner: "", Name: "portfolio"}, true},
		{"blank name", RepositoryRef{Owner: "acme", Name: "   "}, true},
		{"slash in name", RepositoryRef{Owner: "acme", Name: "a/b"}, true},
		{"backslash in owner", RepositoryRef{Owner: `ac\me`, Name: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, derrors.IsInvalidReference(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		input   string
		want    RepositoryRef
		wantErr bool
	}{
		{input: "acme/portfolio", want: RepositoryRef{"acme", "portfolio"}},
		{input: "  acme/portfolio/ ", want: RepositoryRef{"acme", "portfolio"}},
		{input: "github.com/acme/portfolio", want: RepositoryRef{"acme", "portfolio"}},
		{input: "https://github.com/acme/portfolio", want: RepositoryRef{"acme", "portfolio"}},
		{input: "https://github.com/acme/portfolio.git", want: RepositoryRef{"acme", "portfolio"}},
		{input: "https://www.github.com/acme/portfolio/tree/main/src", want: RepositoryRef{"acme", "portfolio"}},
		{input: "git@github.com:acme/portfolio.git", want: RepositoryRef{"acme", "portfolio"}},
		{input: "", wantErr: true},
		{input: "acme", wantErr: true},
		{input: "acme/portfolio/extra", wantErr: true},
		{input: "https://gitlab.com/acme/portfolio", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Owner+"/"+tt.want.Name, got.String())
		})
	}
}

func TestRemoteEntryHelpers(t *testing.T) {
	e := RemoteEntry{Path: "css/Main.CSS", Name: "Main.CSS", Kind: KindFile, ContentLocator: "https://raw/x"}
	assert.True(t, e.Fetchable())
	assert.Equal(t, ".css", e.Extension())

	f := Retrieved(e, "body{}")
	assert.Equal(t, "Main", f.BaseName())
	assert.Equal(t, ".css", f.Extension)

	dir := RemoteEntry{Path: "css", Name: "css", Kind: KindDir}
	assert.False(t, dir.Fetchable())
}
