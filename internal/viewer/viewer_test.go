package viewer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmptyCommand(t *testing.T) {
	v, err := New("   ")
	require.NoError(t, err)
	require.Nil(t, v)
	require.NoError(t, v.Show("images/western/a.jpg"))
}

func TestNewBadQuoting(t *testing.T) {
	_, err := New(`open "unterminated`)
	require.Error(t, err)
}

func TestArgsForPlaceholder(t *testing.T) {
	v, err := New("imgcat --file {image} --fit")
	require.NoError(t, err)
	require.Equal(t,
		[]string{"imgcat", "--file", "images/a.jpg", "--fit"},
		v.argsFor("images/a.jpg"))
}

func TestArgsForAppendsWithoutPlaceholder(t *testing.T) {
	v, err := New("open -a Preview")
	require.NoError(t, err)
	require.Equal(t,
		[]string{"open", "-a", "Preview", "images/a.jpg"},
		v.argsFor("images/a.jpg"))
}

func TestArgsForDoesNotMutateTemplate(t *testing.T) {
	v, err := New("show {image}")
	require.NoError(t, err)
	first := v.argsFor("one.jpg")
	second := v.argsFor("two.jpg")
	require.Equal(t, []string{"show", "one.jpg"}, first)
	require.Equal(t, []string{"show", "two.jpg"}, second)
}
