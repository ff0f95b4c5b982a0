package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jon4hz/accountd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/media/")
	require.NoError(t, err)

	ctx := context.Background()
	key := "profile_pictures/avatar.png"
	require.NoError(t, s.Save(ctx, key, []byte("data"), "image/png"))

	content, err := os.ReadFile(filepath.Join(dir, "profile_pictures", "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Join(dir, "profile_pictures"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Save(ctx, key, []byte("new"), "image/png"))
	content, err = os.ReadFile(filepath.Join(dir, "profile_pictures", "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "profile_pictures", "avatar.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocal_KeyCannotEscapeDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "media")
	s, err := NewLocal(dir, "/media")
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../../escape.txt", []byte("x"), "text/plain"))

	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)

	assert.Error(t, s.Save(context.Background(), "", []byte("x"), "text/plain"))
}

func TestLocal_URL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		key     string
		want    string
	}{
		{"relative", "/media", "profile_pictures/a.png", "/media/profile_pictures/a.png"},
		{"absolute", "https://example.com/media/", "profile_pictures/a.png", "https://example.com/media/profile_pictures/a.png"},
		{"leading slash in key", "/media", "/a.png", "/media/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewLocal(t.TempDir(), tt.baseURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.URL(tt.key))
		})
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), &config.Config{
		ServerURL: "https://accounts.example.com",
		Storage: &config.StorageConfig{
			Type:  config.StorageTypeLocal,
			Local: &config.LocalStorageConfig{Dir: dir, URLPrefix: "/media"},
		},
	})
	require.NoError(t, err)
	require.IsType(t, &Local{}, s)
	assert.Equal(t, "https://accounts.example.com/media/x.png", s.URL("x.png"))

	_, err = New(context.Background(), &config.Config{Storage: &config.StorageConfig{Type: "ftp"}})
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{})
	assert.Error(t, err)
}

func TestS3_URL(t *testing.T) {
	s, err := NewS3(context.Background(), &config.S3StorageConfig{
		Bucket: "avatars",
		Region: "eu-central-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://avatars.s3.eu-central-1.amazonaws.com/profile_pictures/a.png", s.URL("profile_pictures/a.png"))

	s, err = NewS3(context.Background(), &config.S3StorageConfig{
		Bucket:       "avatars",
		Region:       "us-east-1",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/avatars/a.png", s.URL("a.png"))

	s, err = NewS3(context.Background(), &config.S3StorageConfig{
		Bucket:    "avatars",
		Region:    "us-east-1",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", s.URL("a.png"))
}
