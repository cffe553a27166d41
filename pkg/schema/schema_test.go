package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_Conforming(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	violation, err := v.Validate([]byte(`{
		"version": "2.44.0",
		"description": "distributed version control",
		"homepage": "https://git-scm.com",
		"license": "GPL-2.0-only",
		"bin": [["cmd\\git.exe", "git"], "other.exe"],
		"architecture": {
			"64bit": {"url": "https://example.com/x64.zip", "hash": "abc"}
		}
	}`), "git.json", "main")
	require.NoError(t, err)
	require.Nil(t, violation)
}

func TestValidate_MissingVersion(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	violation, err := v.Validate([]byte(`{"description": "no version"}`), "bad.json", "main")
	require.NoError(t, err)
	require.NotNil(t, violation)
	require.NotEmpty(t, violation.Problems)
}

func TestValidate_WrongTypes(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	violation, err := v.Validate([]byte(`{"version": 42}`), "bad.json", "main")
	require.NoError(t, err)
	require.NotNil(t, violation)
}

func TestValidate_InvalidJSONReported(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	violation, err := v.Validate([]byte(`{"version": `), "broken.json", "main")
	require.NoError(t, err)
	require.NotNil(t, violation)
}

func TestValidate_StripsBOM(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	data := append([]byte{0xef, 0xbb, 0xbf}, []byte(`{"version": "1.0"}`)...)
	violation, err := v.Validate(data, "bom.json", "main")
	require.NoError(t, err)
	require.Nil(t, violation)
}
