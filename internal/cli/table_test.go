package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTableAlignsOnDisplayWidth(t *testing.T) {
	var b strings.Builder
	err := writeTable(&b, []string{"ID", "FROM"}, [][]string{
		{"1", "ann"},
		{"22", "日本語"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// "22" is the widest first column, so every FROM cell starts at the
	// same offset.
	require.Equal(t, strings.Index(lines[1], "ann"), strings.Index(lines[2], "日"))
}

func TestWriteTableIgnoresANSIInWidths(t *testing.T) {
	styled := "\x1b[31mred\x1b[0m"
	var b strings.Builder
	err := writeTable(&b, []string{"A", "B"}, [][]string{
		{styled, "x"},
		{"long-cell", "y"},
	})
	require.NoError(t, err)

	lines := strings.Split(b.String(), "\n")
	require.Equal(t, strings.Index(stripANSI(lines[1]), "x"), strings.Index(lines[2], "y"))
}

func TestStripANSI(t *testing.T) {
	require.Equal(t, "hello", stripANSI("\x1b[1;32mhello\x1b[0m"))
	require.Equal(t, "plain", stripANSI("plain"))
}

func TestWriteTableEmpty(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeTable(&b, nil, nil))
	require.Empty(t, b.String())
}
