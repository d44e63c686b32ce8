package stampcard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/httpclient"

	"github.com/go-resty/resty/v2"
	"github.com/minio/minio-go/v7"
	"go.uber.org/fx"
)

const (
	SourceHTTP  = "http"
	SourceMinio = "minio"
)

// ImageSource loads a decodable card image by reference (URL or object key).
type ImageSource interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

type HTTPSource struct {
	client *resty.Client
}

func NewHTTPSource(client *resty.Client) *HTTPSource {
	return &HTTPSource{client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context, ref string) (image.Image, error) {
	resp, err := s.client.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: status %d", ref, resp.StatusCode())
	}

	img, _, err := image.Decode(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return img, nil
}

type MinioSource struct {
	client *minio.Client
	bucket string
}

func NewMinioSource(client *minio.Client, bucket string) *MinioSource {
	return &MinioSource{client: client, bucket: bucket}
}

func (s *MinioSource) Fetch(ctx context.Context, ref string) (image.Image, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", s.bucket, ref, err)
	}
	defer obj.Close()

	img, _, err := image.Decode(obj)
	if err != nil {
		return nil, fmt.Errorf("decode object %s/%s: %w", s.bucket, ref, err)
	}
	return img, nil
}

type SourceParams struct {
	fx.In
	Config *config.Config
	Minio  *minio.Client `optional:"true"`
}

func NewImageSource(p SourceParams) (ImageSource, error) {
	switch p.Config.StampCard.Source {
	case "", SourceHTTP:
		return NewHTTPSource(httpclient.New("stamp-card", p.Config.StampCard.Timeout)), nil
	case SourceMinio:
		if p.Minio == nil {
			return nil, errors.New("stamp card source is minio but MINIO.ENDPOINT is not configured")
		}
		return NewMinioSource(p.Minio, p.Config.Minio.BucketName), nil
	default:
		return nil, fmt.Errorf("unknown stamp card source %q", p.Config.StampCard.Source)
	}
}
