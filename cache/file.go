package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const fileSuffix = ".cache.json"

// 每个条目一个json文件，文件名为键的sha256摘要
type FileStore struct {
	dir string
	options
}

func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &CacheError{Op: "init", Key: dir, Err: err}
	}
	return &FileStore{dir: dir, options: options}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, Hash(key)+fileSuffix)
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	e, ok, err := s.GetEntry(key)
	if !ok || err != nil {
		return nil, false, err
	}
	return []byte(e.Payload), true, nil
}

/*
输入缓存键，输出条目

文件不存在视为未命中；过期条目在读取时删除
*/
func (s *FileStore) GetEntry(key string) (*Entry, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Op: "read", Key: key, Err: err}
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, &CacheError{Op: "decode", Key: key, Err: err}
	}
	if s.expired(&e) {
		s.logger.Debug("cache entry expired", zap.String("key", hint(key)))
		if err := s.Delete(key); err != nil {
			s.logger.Warn("drop expired entry failed", zap.Error(err))
		}
		return nil, false, nil
	}
	return &e, true, nil
}

// 先写临时文件再重命名，多个进程同时写同一个键时后写者生效
func (s *FileStore) Put(key string, body []byte) error {
	data, err := json.MarshalIndent(newEntry(key, body, s.now()), "", "    ")
	if err != nil {
		return &CacheError{Op: "encode", Key: key, Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &CacheError{Op: "write", Key: key, Err: err}
	}
	tmp, err := os.CreateTemp(s.dir, "put-*.tmp")
	if err != nil {
		return &CacheError{Op: "write", Key: key, Err: err}
	}
	_, werr := tmp.Write(data)
	if err := multierr.Combine(werr, tmp.Close()); err != nil {
		os.Remove(tmp.Name())
		return &CacheError{Op: "write", Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return &CacheError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &CacheError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// 只删除缓存条目文件，目录中的其他文件保留
func (s *FileStore) Clear() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+fileSuffix))
	if err != nil {
		return &CacheError{Op: "clear", Key: s.dir, Err: err}
	}
	var errs error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return &CacheError{Op: "clear", Key: s.dir, Err: errs}
	}
	s.logger.Info("cache cleared", zap.String("dir", s.dir), zap.Int("entries", len(matches)))
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
