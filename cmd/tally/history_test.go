package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/history"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest(
		[]string{"category = food", "amount between -50 -1"},
		[]string{"-amount", "description asc"},
		10, 5,
	)
	require.NoError(t, err)

	assert.Len(t, req.Filters, 2)
	assert.Equal(t, history.AttrCategory, req.Filters[0].Attribute)
	assert.Equal(t, "food", req.Filters[0].Value.Text)
	assert.Equal(t, int64(-5000), req.Filters[1].Value.Cents)
	assert.Equal(t, []history.SortKey{
		{Attribute: history.AttrAmount, Descending: true},
		{Attribute: history.AttrDescription},
	}, req.Sort)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, 5, req.Offset)
}

func TestBuildRequest_CollectsProblems(t *testing.T) {
	_, err := buildRequest([]string{"colour = red", "amount >= ten"}, []string{"height"}, 0, 0)
	require.ErrorIs(t, err, common.ErrValidation)

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}
