package services

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adampresley/catgallery/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveEntryName(t *testing.T) {
	tests := []struct {
		name     string
		image    models.Image
		index    int
		expected string
	}{
		{name: "keeps extension", image: models.Image{ID: "abc", URL: "http://cats.example/x/abc.PNG"}, expected: "abc.png"},
		{name: "defaults to jpg", image: models.Image{ID: "abc", URL: "http://cats.example/abc"}, expected: "abc.jpg"},
		{name: "ignores query", image: models.Image{ID: "q", URL: "http://cats.example/q.gif?size=small"}, expected: "q.gif"},
		{name: "missing id", image: models.Image{URL: "http://cats.example/a.jpg"}, index: 2, expected: "cat-3.jpg"},
		{name: "no path traversal", image: models.Image{ID: "../../etc", URL: "http://cats.example/a.jpg"}, expected: "etc.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ArchiveEntryName(tt.image, tt.index))
		})
	}
}

func TestArchiveFilenameAndKey(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 15, 0, time.UTC)
	filename := ArchiveFilename(now)

	assert.Regexp(t, `^favourites-20261018T093015-[0-9a-f]{8}\.zip$`, filename)
	assert.NotEqual(t, filename, ArchiveFilename(now))
	assert.True(t, IsArchiveKey(filename))
	assert.False(t, IsArchiveKey("favourites/visitor/cat.jpg"))

	service := NewArchiveService(ArchiveServiceConfig{DownloadsFolder: "favourites"})
	assert.Equal(t, "favourites/visitor-1/"+filename, service.archiveKey("visitor-1", filename))
}

func TestCreateArchiveAsyncValidatesInput(t *testing.T) {
	service := NewArchiveService(ArchiveServiceConfig{})

	_, err := service.CreateArchiveAsync("", []models.Image{{ID: "a"}})
	assert.Error(t, err)

	_, err = service.CreateArchiveAsync("visitor", nil)
	assert.Error(t, err)
}

func TestArchiveDownloadAndEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone.jpg" {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte("meow"))
	}))
	defer server.Close()

	service := NewArchiveService(ArchiveServiceConfig{})

	body, err := service.download(context.Background(), server.URL+"/cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("meow"), body)

	_, err = service.download(context.Background(), server.URL+"/gone.jpg")
	assert.Error(t, err)

	buf := bytes.Buffer{}
	zipWriter := zip.NewWriter(&buf)
	require.NoError(t, addArchiveEntry(zipWriter, "cat.jpg", body))
	require.NoError(t, zipWriter.Close())

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "cat.jpg", reader.File[0].Name)
}
