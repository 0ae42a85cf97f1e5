package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const audioDir = "audio"

var ErrInvalidKey = errors.New("invalid audio key")

// AudioStore guarda archivos de audio subidos y resuelve su URL publica.
type AudioStore interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewAudioKey genera una clave unica bajo audio/ conservando un nombre legible.
func NewAudioKey(filename string) string {
	return path.Join(audioDir, uuid.NewString()+"-"+sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "audio"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "audio"
	}
	if len(out) > 100 {
		ext := filepath.Ext(out)
		if len(ext) > 10 {
			ext = ""
		}
		out = out[:100-len(ext)] + ext
	}
	return out
}

// LocalAudioStore guarda audio en disco bajo root y lo expone bajo baseURL.
type LocalAudioStore struct {
	root    string
	baseURL string
}

func NewLocalAudioStore(root, baseURL string) *LocalAudioStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalAudioStore{root: root, baseURL: baseURL}
}

func (s *LocalAudioStore) Save(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if body == nil {
		return "", errors.New("audio body is required")
	}
	key := NewAudioKey(filename)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return key, nil
}

func (s *LocalAudioStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalAudioStore) URL(key string) string {
	return s.baseURL + key
}

// Root devuelve el directorio servido como media.
func (s *LocalAudioStore) Root() string {
	return s.root
}

func validKey(key string) bool {
	clean := path.Clean(key)
	return clean == key && strings.HasPrefix(clean, audioDir+"/") && !strings.Contains(clean, "..")
}
