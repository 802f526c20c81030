// Package backup writes rotating interchange snapshots of the record store
// and optionally copies them to S3.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"stockflow/internal/interchange"
	"stockflow/internal/ports"
)

const (
	filePrefix = "records_"
	fileSuffix = ".csv"
	timeLayout = "2006-01-02_150405"
)

// Uploader is the subset of manager.Uploader the service needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Options struct {
	Dir  string
	Keep int

	// Bucket enables off-site copies when set together with an Uploader.
	Bucket string
	Prefix string
}

// Service takes snapshots of the record store.
type Service struct {
	store    ports.RecordReader
	opts     Options
	uploader Uploader
	now      func() time.Time
}

func NewService(store ports.RecordReader, opts Options, uploader Uploader) *Service {
	if opts.Keep <= 0 {
		opts.Keep = 14
	}
	return &Service{
		store:    store,
		opts:     opts,
		uploader: uploader,
		now:      time.Now,
	}
}

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, region string) (*manager.Uploader, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return manager.NewUploader(s3.NewFromConfig(cfg)), nil
}

// Name identifies the job in scheduler logs.
func (s *Service) Name() string { return "backup" }

// Run writes one snapshot, rotates old ones and uploads the new one. Rotation
// and upload failures are logged; the local snapshot is what counts.
func (s *Service) Run(ctx context.Context) error {
	started := s.now()

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	var buf bytes.Buffer
	if err := interchange.Export(&buf, records); err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}

	if err := os.MkdirAll(s.opts.Dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	name := filePrefix + started.UTC().Format(timeLayout) + fileSuffix
	path := filepath.Join(s.opts.Dir, name)

	// Write then rename so a crash never leaves a truncated snapshot behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	if removed, err := s.rotate(); err != nil {
		slog.ErrorContext(ctx, "Failed to rotate backups", "error", err)
	} else if removed > 0 {
		slog.InfoContext(ctx, "Rotated old backups", "removed", removed)
	}

	if s.uploader != nil && s.opts.Bucket != "" {
		key := strings.TrimPrefix(s.opts.Prefix+name, "/")
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.opts.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("text/csv"),
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to upload backup", "bucket", s.opts.Bucket, "key", key, "error", err)
		} else {
			slog.InfoContext(ctx, "Uploaded backup", "bucket", s.opts.Bucket, "key", key)
		}
	}

	slog.InfoContext(ctx, "Backup completed",
		"path", path,
		"records", len(records),
		"duration", time.Since(started))
	return nil
}

// Snapshots lists snapshot file names, newest first.
func (s *Service) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, filePrefix) || !strings.HasSuffix(n, fileSuffix) {
			continue
		}
		names = append(names, n)
	}
	// The timestamp layout sorts lexicographically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Service) rotate() (int, error) {
	names, err := s.Snapshots()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, n := range names[min(len(names), s.opts.Keep):] {
		if err := os.Remove(filepath.Join(s.opts.Dir, n)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", n, err)
		}
		removed++
	}
	return removed, nil
}
