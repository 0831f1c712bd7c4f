package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/nfnt/resize"
)

type ThumbnailServicer interface {
	Thumbnail(ctx context.Context, imageURL string) ([]byte, error)
}

type ThumbnailServiceConfig struct {
	HttpClient *http.Client
	MaxSize    uint
	Quality    int
}

type ThumbnailService struct {
	httpClient *http.Client
	maxSize    uint
	quality    int
}

func NewThumbnailService(config ThumbnailServiceConfig) ThumbnailService {
	if config.HttpClient == nil {
		config.HttpClient = http.DefaultClient
	}

	if config.MaxSize == 0 {
		config.MaxSize = 300
	}

	if config.Quality <= 0 {
		config.Quality = 85
	}

	return ThumbnailService{
		httpClient: config.HttpClient,
		maxSize:    config.MaxSize,
		quality:    config.Quality,
	}
}

/*
Thumbnail downloads the image and returns a JPEG whose longest edge is the
configured maximum size. Nothing is stored; every call downloads again.
*/
func (s ThumbnailService) Thumbnail(ctx context.Context, imageURL string) ([]byte, error) {
	var (
		err      error
		request  *http.Request
		response *http.Response
		img      image.Image
		buf      bytes.Buffer
	)

	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil); err != nil {
		return nil, fmt.Errorf("error building request for '%s': %w", imageURL, err)
	}

	if response, err = s.httpClient.Do(request); err != nil {
		return nil, fmt.Errorf("error downloading image from '%s': %w", imageURL, err)
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading image from '%s', status: %s", imageURL, response.Status)
	}

	if img, _, err = image.Decode(response.Body); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	resized := s.resize(img)

	if err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("error encoding thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

func (s ThumbnailService) resize(img image.Image) image.Image {
	/*
	 * Determine which dimension to resize based on the longest edge
	 */
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width <= s.maxSize && height <= s.maxSize {
		return img
	}

	var newWidth, newHeight uint
	if width > height {
		newWidth = s.maxSize
		newHeight = uint(float64(height) * (float64(s.maxSize) / float64(width)))
	} else {
		newHeight = s.maxSize
		newWidth = uint(float64(width) * (float64(s.maxSize) / float64(height)))
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
}
