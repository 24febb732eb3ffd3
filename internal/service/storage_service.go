package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"learning_aid_backend/internal/config"
	"learning_aid_backend/internal/util"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	storage "github.com/supabase-community/storage-go"
)

// StorageProvider 内容包的读取来源
type StorageProvider interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

func isBundle(name string) bool {
	return slices.Contains(util.AllowedBundleExtensions, strings.ToLower(filepath.Ext(name)))
}

// LocalStorageProvider 本地目录
type LocalStorageProvider struct {
	Root string
}

// Open keeps name inside Root; "../" segments are cleaned away.
func (p *LocalStorageProvider) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(p.Root, filepath.Clean("/"+name)))
}

func (p *LocalStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) && isBundle(rel) {
			names = append(names, rel)
		}
		return nil
	})
	return names, err
}

// SupabaseStorageProvider Supabase Storage bucket
type SupabaseStorageProvider struct {
	Client *storage.Client
	Bucket string
}

func NewSupabaseStorageProvider(supabaseURL, key, bucket string) *SupabaseStorageProvider {
	client := storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", key, nil)
	return &SupabaseStorageProvider{Client: client, Bucket: bucket}
}

func (p *SupabaseStorageProvider) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, err := p.Client.DownloadFile(p.Bucket, name)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", p.Bucket, name, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (p *SupabaseStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := p.Client.ListFiles(p.Bucket, prefix, storage.FileSearchOptions{Limit: 1000})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range files {
		name := f.Name
		if prefix != "" {
			name = strings.TrimSuffix(prefix, "/") + "/" + f.Name
		}
		if isBundle(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Client *minio.Client
	Bucket string
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Client: client, Bucket: cfg.MinioBucket}, nil
}

func (p *MinioStorageProvider) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return p.Client.GetObject(ctx, p.Bucket, name, minio.GetObjectOptions{})
}

func (p *MinioStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range p.Client.ListObjects(ctx, p.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if isBundle(obj.Key) {
			names = append(names, obj.Key)
		}
	}
	return names, nil
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Bucket *oss.Bucket
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Bucket: bucket}, nil
}

func (p *OSSStorageProvider) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return p.Bucket.GetObject(name)
}

func (p *OSSStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	marker := ""
	for {
		res, err := p.Bucket.ListObjects(oss.Prefix(prefix), oss.Marker(marker))
		if err != nil {
			return nil, err
		}
		for _, obj := range res.Objects {
			if isBundle(obj.Key) {
				names = append(names, obj.Key)
			}
		}
		if !res.IsTruncated {
			return names, nil
		}
		marker = res.NextMarker
	}
}

// NewStorageProvider picks the bundle source from storage.type.
func NewStorageProvider(cfg *config.Config) (StorageProvider, error) {
	switch cfg.Storage.Type {
	case util.StorageLocal, "":
		return &LocalStorageProvider{Root: cfg.Storage.LocalPath}, nil
	case util.StorageSupabase:
		return NewSupabaseStorageProvider(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Storage.SupabaseBucket), nil
	case util.StorageMinio:
		return NewMinioStorageProvider(&cfg.Storage)
	case util.StorageOSS:
		return NewOSSStorageProvider(&cfg.Storage)
	default:
		return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedSource, cfg.Storage.Type)
	}
}
