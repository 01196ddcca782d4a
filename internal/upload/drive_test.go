package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umerkhan-dev/weather-etl/internal/persist"
)

// stubCreator records the create call instead of hitting the Drive API.
type stubCreator struct {
	gotName     string
	gotFolderID string
	gotMIME     string
	gotContent  []byte
	err         error
}

func (s *stubCreator) Create(_ context.Context, name, folderID, mimeType string, content io.Reader) (RemoteFile, error) {
	s.gotName = name
	s.gotFolderID = folderID
	s.gotMIME = mimeType
	s.gotContent, _ = io.ReadAll(content)
	if s.err != nil {
		return RemoteFile{}, s.err
	}
	return RemoteFile{ID: "remote-123", Name: name, WebViewLink: "https://drive.example/remote-123"}, nil
}

func writeArtifact(t *testing.T, format persist.Format, content string) persist.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "karachi_weather_data_20250322_081542."+string(format))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return persist.Artifact{Path: path, Format: format}
}

func TestUpload(t *testing.T) {
	creator := &stubCreator{}
	u := NewUploader(creator, "folder-1", nil)

	art := writeArtifact(t, persist.FormatCSV, "timestamp,temperature_celsius\n")
	remote, err := u.Upload(context.Background(), art)
	require.NoError(t, err)

	assert.Equal(t, "remote-123", remote.ID)
	assert.Equal(t, "https://drive.example/remote-123", remote.WebViewLink)
	assert.Equal(t, "karachi_weather_data_20250322_081542.csv", creator.gotName)
	assert.Equal(t, "folder-1", creator.gotFolderID)
	assert.Equal(t, "text/csv", creator.gotMIME)
	assert.Equal(t, "timestamp,temperature_celsius\n", string(creator.gotContent))
}

func TestUploadCreatorFailure(t *testing.T) {
	creator := &stubCreator{err: errors.New("quota exceeded")}
	u := NewUploader(creator, "folder-1", nil)

	art := writeArtifact(t, persist.FormatJSON, "{}")
	_, err := u.Upload(context.Background(), art)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestUploadMissingArtifact(t *testing.T) {
	u := NewUploader(&stubCreator{}, "folder-1", nil)

	_, err := u.Upload(context.Background(), persist.Artifact{
		Path:   filepath.Join(t.TempDir(), "missing.json"),
		Format: persist.FormatJSON,
	})
	assert.Error(t, err)
}

func TestResolveCredentials(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "service-account.json")
	alternate := filepath.Join(dir, "credentials", "service-account.json")

	// Neither exists.
	_, err := ResolveCredentials(primary, alternate)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Only the alternate exists.
	require.NoError(t, os.MkdirAll(filepath.Dir(alternate), 0o755))
	require.NoError(t, os.WriteFile(alternate, []byte("{}"), 0o600))
	got, err := ResolveCredentials(primary, alternate)
	require.NoError(t, err)
	assert.Equal(t, alternate, got)

	// Primary wins when present.
	require.NoError(t, os.WriteFile(primary, []byte("{}"), 0o600))
	got, err = ResolveCredentials(primary, alternate)
	require.NoError(t, err)
	assert.Equal(t, primary, got)
}
