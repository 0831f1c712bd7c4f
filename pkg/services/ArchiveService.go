package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/getoptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/adamgokit/s3/putoptions"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/alitto/pond/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

type ArchiveServiceConfig struct {
	AwsRegion       string
	Bucket          string
	DownloadsFolder string
	ExpirationDays  int
	HttpClient      *http.Client
	MaxWorkers      int
	S3Client        s3.S3Client
	ShutdownCtx     context.Context
}

type ArchiveServicer interface {
	EnsureBucket() error
	CreateArchiveAsync(visitorID string, images []models.Image) (string, error)
	Open(ctx context.Context, visitorID, filename string) (s3.GetObjectResponse, error)
	StartCleanupRoutine(interval time.Duration)
	StopCleanupRoutine()
}

/*
ArchiveService zips a visitor's favourite cats into the S3 bucket so they can
be downloaded in one go. Images are fetched in parallel on a worker pool and
written to the zip one at a time.
*/
type ArchiveService struct {
	config        ArchiveServiceConfig
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	wg            *sync.WaitGroup
}

func NewArchiveService(config ArchiveServiceConfig) *ArchiveService {
	if config.ExpirationDays <= 0 {
		config.ExpirationDays = 7
	}

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 5
	}

	if config.HttpClient == nil {
		config.HttpClient = http.DefaultClient
	}

	if config.ShutdownCtx == nil {
		config.ShutdownCtx = context.Background()
	}

	return &ArchiveService{
		config:      config,
		stopCleanup: make(chan struct{}),
		wg:          &sync.WaitGroup{},
	}
}

func (s *ArchiveService) EnsureBucket() error {
	var (
		err    error
		exists bool
	)

	if exists, err = s.config.S3Client.BucketExists(s.config.Bucket); err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", s.config.Bucket, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", s.config.Bucket)

	err = s.config.S3Client.CreateBucket(
		s.config.Bucket,
		createbucketoptions.WithRegion(s.config.AwsRegion),
	)

	if err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", s.config.Bucket, err)
	}

	return nil
}

/*
CreateArchiveAsync starts building the archive in the background and returns
the file name it will be stored under.
*/
func (s *ArchiveService) CreateArchiveAsync(visitorID string, images []models.Image) (string, error) {
	if visitorID == "" {
		return "", fmt.Errorf("a visitor is required to create an archive")
	}

	if len(images) == 0 {
		return "", fmt.Errorf("there are no favourites to archive")
	}

	filename := ArchiveFilename(time.Now())
	key := s.archiveKey(visitorID, filename)

	go s.processArchive(key, images)

	return filename, nil
}

func (s *ArchiveService) Open(ctx context.Context, visitorID, filename string) (s3.GetObjectResponse, error) {
	key := s.archiveKey(visitorID, filepath.Base(filename))

	result, err := s.config.S3Client.Get(
		s.config.Bucket,
		key,
		getoptions.WithContext(ctx),
	)

	if err != nil {
		return result, fmt.Errorf("error getting archive '%s': %w", key, err)
	}

	return result, nil
}

func (s *ArchiveService) processArchive(key string, images []models.Image) {
	var (
		mu sync.Mutex
	)

	l := slog.With("key", key, "numImages", len(images))
	l.Info("starting favourites archive")

	stream, err := s.config.S3Client.PutStream(s.config.Bucket, key, putoptions.WithContentType("application/zip"))

	if err != nil {
		l.Error("failed to setup s3 stream", "error", err)
		return
	}

	zipWriter := zip.NewWriter(stream.Writer)
	pool := pond.NewPool(s.config.MaxWorkers, pond.WithContext(s.config.ShutdownCtx))

	for index, img := range images {
		pool.Submit(func() {
			var (
				err  error
				body []byte
			)

			if body, err = s.download(s.config.ShutdownCtx, img.URL); err != nil {
				l.Error("failed to download image for archive", "error", err, "imageID", img.ID)
				return
			}

			mu.Lock()
			defer mu.Unlock()

			if err = addArchiveEntry(zipWriter, ArchiveEntryName(img, index), body); err != nil {
				l.Error("failed to add image to archive", "error", err, "imageID", img.ID)
			}
		})
	}

	_ = pool.Stop().Wait()

	if err = zipWriter.Close(); err != nil {
		l.Error("failed to close zip writer", "error", err)
		return
	}

	if err = stream.Writer.Close(); err != nil {
		l.Error("failed to close s3 stream writer", "error", err)
		return
	}

	if _, err = stream.Wait(); err != nil {
		l.Error("failed to wait for s3 stream", "error", err)
		return
	}

	l.Info("finished uploading favourites archive")
}

func (s *ArchiveService) download(ctx context.Context, imageURL string) ([]byte, error) {
	var (
		err      error
		request  *http.Request
		response *http.Response
	)

	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil); err != nil {
		return nil, fmt.Errorf("error building request for '%s': %w", imageURL, err)
	}

	if response, err = s.config.HttpClient.Do(request); err != nil {
		return nil, fmt.Errorf("error downloading '%s': %w", imageURL, err)
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading '%s', status: %s", imageURL, response.Status)
	}

	return io.ReadAll(response.Body)
}

// StartCleanupRoutine starts a periodic routine to remove expired archives
func (s *ArchiveService) StartCleanupRoutine(interval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupTicker = time.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case <-s.cleanupTicker.C:
				s.cleanupExpiredArchives()
			case <-s.stopCleanup:
				s.cleanupTicker.Stop()
				return
			}
		}
	}()

	slog.Info("archive cleanup routine started", "interval", interval)
}

func (s *ArchiveService) StopCleanupRoutine() {
	if s.cleanupTicker != nil {
		close(s.stopCleanup)
		s.wg.Wait()
		s.cleanupTicker = nil
		slog.Info("archive cleanup routine stopped")
	}
}

func (s *ArchiveService) cleanupExpiredArchives() {
	var (
		removedCount int
	)

	l := slog.With("function", "cleanupExpiredArchives")
	cutoffTime := time.Now().AddDate(0, 0, -s.config.ExpirationDays)

	listResponse, err := s.config.S3Client.List(
		s.config.Bucket,
		s.config.DownloadsFolder,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			return IsArchiveKey(aws.ToString(obj.Key))
		}),
	)

	if err != nil {
		l.Error("failed to list archives", "error", err, "path", s.config.DownloadsFolder)
		return
	}

	for _, file := range listResponse.Objects {
		if !file.LastModified.Before(cutoffTime) {
			continue
		}

		l.Info("removing expired archive from S3", "path", file.Key, "modTime", file.LastModified)

		if _, err := s.config.S3Client.Delete(s.config.Bucket, []string{file.Key}); err != nil {
			l.Error("failed to remove expired archive from S3", "error", err, "path", file.Key)
			continue
		}

		removedCount++
	}

	l.Info("completed cleanup of expired archives", "removed", removedCount)
}

func (s *ArchiveService) archiveKey(visitorID, filename string) string {
	return path.Join(s.config.DownloadsFolder, visitorID, filename)
}

func addArchiveEntry(zipWriter *zip.Writer, name string, body []byte) error {
	dest, err := zipWriter.Create(name)

	if err != nil {
		return fmt.Errorf("failed to create file '%s' in zip: %w", name, err)
	}

	if _, err = dest.Write(body); err != nil {
		return fmt.Errorf("failed to write file '%s' to zip: %w", name, err)
	}

	return nil
}

/*
ArchiveFilename names a new archive after the time it was requested. A random
suffix keeps two requests in the same second from sharing an S3 key.
*/
func ArchiveFilename(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("favourites-%s-%s.zip", now.UTC().Format("20060102T150405"), suffix)
}

/*
ArchiveEntryName names the file inside the zip after the image ID, keeping
the extension from the image URL. The index keeps names unique when an ID is
missing.
*/
func ArchiveEntryName(img models.Image, index int) string {
	ext := ".jpg"

	if u, err := url.Parse(img.URL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e != "" {
			ext = e
		}
	}

	name := img.ID
	if name == "" {
		name = fmt.Sprintf("cat-%d", index+1)
	}

	return filepath.Base(name) + ext
}

func IsArchiveKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), ".zip")
}
