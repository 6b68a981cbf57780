package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/strrl/idea-vault/pkg/models"
)

const (
	sessionDirMode       = 0o700
	sessionFileMode      = 0o600
	sessionTempPattern   = ".session-*.toml.tmp"
	currentSessionSchema = 1
)

type sessionFile struct {
	Version int            `toml:"version"`
	Session *sessionSchema `toml:"session,omitempty"`
}

type sessionSchema struct {
	UserID       string `toml:"user_id"`
	Email        string `toml:"email"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	ExpiresAt    string `toml:"expires_at,omitempty"`
}

// SessionStore persists the current session between runs in a 0600 TOML
// file. A missing file means no session.
type SessionStore struct {
	path string
	mu   sync.RWMutex
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: filepath.Clean(path)}
}

func (s *SessionStore) Path() string {
	return s.path
}

// Load returns the stored session or nil when none is stored
func (s *SessionStore) Load(ctx context.Context) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var file sessionFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if file.Version > currentSessionSchema {
		return nil, fmt.Errorf("unsupported session schema version %d (current %d)", file.Version, currentSessionSchema)
	}
	if file.Session == nil {
		return nil, nil
	}

	return file.Session.toModel()
}

// Save replaces the stored session atomically
func (s *SessionStore) Save(ctx context.Context, session models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := toml.Marshal(sessionFile{
		Version: currentSessionSchema,
		Session: toSessionSchema(session),
	})
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, sessionDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, sessionTempPattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	cleanup = false

	return nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func toSessionSchema(session models.Session) *sessionSchema {
	encoded := &sessionSchema{
		UserID:       session.UserID.String(),
		Email:        session.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}
	if !session.ExpiresAt.IsZero() {
		encoded.ExpiresAt = session.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return encoded
}

func (s sessionSchema) toModel() (*models.Session, error) {
	userID, err := uuid.Parse(s.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode session user id: %w", err)
	}

	session := &models.Session{
		UserID:       userID,
		Email:        s.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, s.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("decode session expiry: %w", err)
		}
		session.ExpiresAt = expiresAt
	}
	return session, nil
}
