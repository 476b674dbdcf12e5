package jsonutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		givePath string
		giveObj  any
		want     string
		wantErr  string
	}{
		{
			name:     "success",
			givePath: "valid.json",
			giveObj:  map[string]string{"key": "value"},
			want:     `{"key":"value"}`,
		},
		{
			name:     "success: creates parent directories",
			givePath: filepath.Join("chain-1337", "deployed_addresses.json"),
			giveObj:  map[string]string{"TokenAModule#TokenA": "0x01"},
			want:     `{"TokenAModule#TokenA":"0x01"}`,
		},
		{
			name:     "failure: cannot marshal JSON",
			givePath: "invalid.json",
			giveObj:  make(chan int),
			wantErr:  "json: unsupported type: chan int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rootDir := t.TempDir()

			err := WriteFile(filepath.Join(rootDir, tt.givePath), tt.giveObj)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)

				b, err := os.ReadFile(filepath.Join(rootDir, tt.givePath))
				require.NoError(t, err)

				assert.JSONEq(t, tt.want, string(b))

				_, err = os.Stat(filepath.Join(rootDir, tt.givePath+".tmp"))
				assert.ErrorIs(t, err, os.ErrNotExist)
			}
		})
	}
}

func Test_LoadFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"valid.json":   {Data: []byte(`{"key": "value"}`)},
		"invalid.json": {Data: []byte(`invalid`)},
	}

	tests := []struct {
		name    string
		give    string
		want    map[string]string
		wantErr string
	}{
		{
			name: "success",
			give: "valid.json",
			want: map[string]string{"key": "value"},
		},
		{
			name:    "failure: cannot read path",
			give:    "notfound.json",
			wantErr: "failed to read notfound.json",
		},
		{
			name:    "failure: cannot unmarshal JSON",
			give:    "invalid.json",
			wantErr: "failed to unmarshal JSON at path invalid.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadFromFS[map[string]string](fsys, tt.give)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_LoadFileOrZero(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	got, err := LoadFileOrZero[map[string]string](filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, got)

	path := filepath.Join(dir, "present.json")
	require.NoError(t, WriteFile(path, map[string]string{"a": "b"}))

	got, err = LoadFileOrZero[map[string]string](path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b"}, got)
}

func Test_LoadFromFS_KeepsLargeNumbers(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"n.json": {Data: []byte(`{"selector": 3379446385462418246}`)},
	}

	got, err := LoadFromFS[map[string]any](fsys, "n.json")
	require.NoError(t, err)
	assert.Equal(t, json.Number("3379446385462418246"), got["selector"])
}
