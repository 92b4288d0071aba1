package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/util"
)

func TestLoadKeys_GeneratesAndReloads(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	first, err := LoadKeys(&util.KeysConfig{Dir: dir}, log)
	require.NoError(t, err)
	require.NotNil(t, first.Private)
	require.NotNil(t, first.Public)

	require.FileExists(t, filepath.Join(dir, privateKeyFile))
	require.FileExists(t, filepath.Join(dir, publicKeyFile))

	second, err := LoadKeys(&util.KeysConfig{Dir: dir}, log)
	require.NoError(t, err)
	require.Equal(t, first.Public.N, second.Public.N)
	require.Equal(t, first.Private.D, second.Private.D)
}

func TestLoadKeys_MissingDirectoryIsFatal(t *testing.T) {
	log := zap.NewNop().Sugar()

	_, err := LoadKeys(&util.KeysConfig{Dir: filepath.Join(t.TempDir(), "nope")}, log)
	require.Error(t, err)
}

func TestLoadKeys_CorruptKeyFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	_, err := LoadKeys(&util.KeysConfig{Dir: dir}, log)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, privateKeyFile), []byte("garbage"), 0o600))

	_, err = LoadKeys(&util.KeysConfig{Dir: dir}, log)
	require.Error(t, err)
}
