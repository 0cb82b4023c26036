// Package secrets seals small values at rest with a kryptograf key store.
package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
)

// SealedPrefix marks a sealed value.
const SealedPrefix = "sealed:v1:"

const descriptorName = "inkwell-credential"

// ErrNotSealed indicates Open was given a value without the sealed prefix.
var ErrNotSealed = errors.New("value is not sealed")

// Sealer encrypts and decrypts values with a root key kept in a key store file.
type Sealer struct {
	storePath string
	log       pslog.Logger
	mu        sync.Mutex
}

// NewSealer creates or loads the key store at path and ensures a root key exists.
func NewSealer(path string) (*Sealer, error) {
	return NewSealerWithLogger(path, nil)
}

// NewSealerWithLogger creates or loads the key store with logging.
func NewSealerWithLogger(path string, logger pslog.Logger) (*Sealer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("key store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	s := &Sealer{storePath: path, log: logger}
	if _, _, err := s.material(); err != nil {
		if logger != nil {
			logger.Warn("key store ensure failed", "path", path, "err", err)
		}
		return nil, err
	}
	if logger != nil {
		logger.Debug("key store ensure ok", "path", path)
	}
	return s, nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// Seal encrypts plain. An empty value stays empty.
func (s *Sealer) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	material, root, err := s.material()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	writer, err := kryptograf.New(root).EncryptWriter(&buf, material)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if _, err := io.WriteString(writer, plain); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return SealedPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if !IsSealed(sealed) {
		return "", ErrNotSealed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	material, root, err := s.material()
	if err != nil {
		return "", err
	}
	reader, err := kryptograf.New(root).DecryptReader(bytes.NewReader(raw), material)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}

func (s *Sealer) material() (keymgmt.Material, keymgmt.RootKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := keymgmt.LoadProto(s.storePath)
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	material, err := store.EnsureDescriptor(descriptorName, root, []byte(descriptorName))
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	if err := store.Commit(); err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	return material, root, nil
}
