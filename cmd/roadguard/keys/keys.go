// Package keys produces and stores WireGuard key material through the wg binary.
package keys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"roadguard/cmd/roadguard/executor"
	"roadguard/models"
)

const (
	DefaultWgBinary = "wg"

	// OwnerOnly is the mode of every file holding secret material.
	OwnerOnly os.FileMode = 0o600
)

type Manager struct {
	runner executor.Runner
	wgBin  string
	logger logr.Logger
}

type Option func(*Manager)

func WithWgBinary(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.wgBin = path
		}
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func New(runner executor.Runner, opts ...Option) *Manager {
	m := &Manager{
		runner: runner,
		wgBin:  DefaultWgBinary,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateKeypair runs `wg genkey` and pipes its output into `wg pubkey`.
func (m *Manager) GenerateKeypair(ctx context.Context) (models.Keypair, error) {
	priv, pub, err := executor.Pipe(ctx, m.runner,
		executor.Cmd{Name: m.wgBin, Args: []string{"genkey"}},
		executor.Cmd{Name: m.wgBin, Args: []string{"pubkey"}},
	)
	if err != nil {
		return models.Keypair{}, fmt.Errorf("%w: %w", models.ErrKeyGeneration, err)
	}

	kp := models.Keypair{Private: trimKey(priv), Public: trimKey(pub)}
	if kp.Private == "" || kp.Public == "" {
		return models.Keypair{}, fmt.Errorf("%w: %s printed an empty key", models.ErrKeyGeneration, m.wgBin)
	}
	m.logger.V(1).Info("generated keypair", "public", kp.Public)
	return kp, nil
}

// GeneratePrivate runs `wg genkey` alone.
func (m *Manager) GeneratePrivate(ctx context.Context) (models.Key, error) {
	out, err := executor.RunChecked(ctx, m.runner, executor.Cmd{Name: m.wgBin, Args: []string{"genkey"}})
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrKeyGeneration, err)
	}
	priv := trimKey(out)
	if priv == "" {
		return "", fmt.Errorf("%w: %s genkey printed an empty key", models.ErrKeyGeneration, m.wgBin)
	}
	return priv, nil
}

// DerivePublic pipes an existing private key into `wg pubkey`.
func (m *Manager) DerivePublic(ctx context.Context, priv models.Key) (models.Key, error) {
	if priv == "" {
		return "", fmt.Errorf("%w: empty private key", models.ErrKeyGeneration)
	}
	out, err := executor.RunChecked(ctx, m.runner, executor.Cmd{
		Name:  m.wgBin,
		Args:  []string{"pubkey"},
		Stdin: []byte(string(priv) + "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrKeyGeneration, err)
	}
	pub := trimKey(out)
	if pub == "" {
		return "", fmt.Errorf("%w: %s pubkey printed an empty key", models.ErrKeyGeneration, m.wgBin)
	}
	return pub, nil
}

// Persist writes material to path with owner-only permissions.
func (m *Manager) Persist(path string, material []byte) error {
	if err := WriteOwnerOnly(path, material); err != nil {
		return err
	}
	m.logger.V(1).Info("persisted", "path", path)
	return nil
}

// Load reads a key written by Persist.
func (m *Manager) Load(path string) (models.Key, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	k := trimKey(buf)
	if k == "" {
		return "", fmt.Errorf("%w: %s is empty", models.ErrPersistence, path)
	}
	return k, nil
}

// WriteOwnerOnly writes data into a temp file created 0600 next to path and
// renames it over path, so the content is never visible with a wider mode.
func WriteOwnerOnly(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(OwnerOnly); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	_, werr := tmp.Write(data)
	serr := tmp.Sync()
	cerr := tmp.Close()
	if werr = errors.Join(werr, serr, cerr); werr != nil {
		return fmt.Errorf("%w: %s: %w", models.ErrPersistence, path, werr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

func trimKey(b []byte) models.Key {
	return models.Key(strings.TrimSpace(string(b)))
}
