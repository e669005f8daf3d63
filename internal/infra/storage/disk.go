package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/usecase"
)

const maxAllocateAttempts = 8

// DiskStorage allocates capture sinks as files under one directory.
type DiskStorage struct {
	dir string
	seq atomic.Uint64
	now func() time.Time
}

func NewDiskStorage(dir string) *DiskStorage {
	return &DiskStorage{dir: dir, now: time.Now}
}

func (s *DiskStorage) Dir() string {
	return s.dir
}

// fileName combines kind, a hash of (batch, device), wall clock and a
// process-wide sequence number.
func (s *DiskStorage) fileName(kind domain.MediaKind, batchID, deviceID string) string {
	return fmt.Sprintf(
		"%s-%016x-%d-%d%s",
		kind,
		xxh3.HashString(batchID+"\x00"+deviceID),
		s.now().UnixMilli(),
		s.seq.Add(1),
		kind.Extension(),
	)
}

// Allocate creates a new, never before used file. O_EXCL guarantees an
// existing artifact is never reopened or truncated.
func (s *DiskStorage) Allocate(kind domain.MediaKind, batchID, deviceID string) (usecase.Sink, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}

	for range maxAllocateAttempts {
		name := s.fileName(kind, batchID, deviceID)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return nil, errors.Wrap(err, "create sink")
		}
		return &fileSink{file: f, name: name}, nil
	}
	return nil, fmt.Errorf("could not allocate a unique sink name for %s/%s", batchID, deviceID)
}

type fileSink struct {
	file *os.File
	name string
	once sync.Once
	err  error
}

func (f *fileSink) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

func (f *fileSink) Close() error {
	f.once.Do(func() {
		f.err = f.file.Close()
	})
	return f.err
}

func (f *fileSink) Name() string {
	return f.name
}
