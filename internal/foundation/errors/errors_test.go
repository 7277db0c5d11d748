package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_DefaultsAndOverrides(t *testing.T) {
	err := New(CategoryParse, "bad fence").Build()
	require.Equal(t, CategoryParse, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.False(t, err.IsFatal())

	fatal := New(CategoryFileSystem, "source dir vanished").Fatal().Build()
	require.True(t, fatal.IsFatal())
	require.Contains(t, fatal.Error(), "[filesystem:fatal]")
}

func TestWrap_PreservesCauseChain(t *testing.T) {
	cause := fmt.Errorf("open docs: %w", fs.ErrNotExist)
	err := Wrap(cause, CategoryFileSystem, "read source file").
		WithContext("path", "docs/intro.md").
		Build()

	require.ErrorIs(t, err, fs.ErrNotExist)
	require.Equal(t, "docs/intro.md", err.Context()["path"])
	require.Contains(t, err.Error(), "read source file")
}

func TestAsClassified_ThroughWrapping(t *testing.T) {
	inner := New(CategoryGit, "push rejected").Fatal().Build()
	wrapped := fmt.Errorf("publish: %w", inner)

	ce, ok := AsClassified(wrapped)
	require.True(t, ok)
	require.Equal(t, CategoryGit, ce.Category())
	require.True(t, IsCategory(wrapped, CategoryGit))
	require.False(t, IsCategory(wrapped, CategoryConfig))
}

func TestAsClassified_PlainError(t *testing.T) {
	_, ok := AsClassified(fmt.Errorf("plain"))
	require.False(t, ok)
}
