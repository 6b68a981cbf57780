// Package remotetest provides an in-memory stand-in for the auth service
// and the ideas table, for tests of code built on remote.Client.
package remotetest

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/strrl/idea-vault/pkg/models"
)

// ErrBadCredentials mimics the auth service's wrong-password response
var ErrBadCredentials = errors.New(`response status code 400: {"error":"invalid_grant","error_description":"Invalid login credentials"}`)

type account struct {
	id       uuid.UUID
	email    string
	password string
}

// Backend implements remote.AuthAPI and remote.IdeasAPI. Rows are only
// visible to and insertable by the account owning the access token, like
// the production row-level policies.
type Backend struct {
	// Base is the creation time of the first row and the expiry origin of
	// issued sessions (Base + one hour)
	Base time.Time
	// AutoVerify makes SignUp return a session immediately
	AutoVerify bool
	// LeakRows disables the owner policy on select
	LeakRows bool

	mu          sync.Mutex
	accounts    map[string]account
	tokens      map[string]uuid.UUID
	refresh     map[string]uuid.UUID
	rows        []models.Idea
	nextID      int64
	failSelect  error
	failInsert  error
	failRefresh bool
	selectCalls int
	insertCalls int
	logoutCalls int
}

func NewBackend() *Backend {
	return &Backend{
		Base:     time.Date(2025, 11, 7, 14, 0, 0, 0, time.UTC),
		accounts: make(map[string]account),
		tokens:   make(map[string]uuid.UUID),
		refresh:  make(map[string]uuid.UUID),
	}
}

// AddAccount registers a verified account and returns its id
func (b *Backend) AddAccount(email, password string) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	b.accounts[email] = account{id: id, email: email, password: password}
	return id
}

// AddRow stores a row as is, bypassing the insert policy
func (b *Backend) AddRow(row models.Idea) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append(b.rows, row)
}

func (b *Backend) FailSelect(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failSelect = err
}

func (b *Backend) FailInsert(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failInsert = err
}

func (b *Backend) FailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

func (b *Backend) SelectCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selectCalls
}

func (b *Backend) InsertCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertCalls
}

func (b *Backend) LogoutCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logoutCalls
}

func (b *Backend) issue(a account) *models.Session {
	access := "access-" + uuid.NewString()
	refresh := "refresh-" + uuid.NewString()
	b.tokens[access] = a.id
	b.refresh[refresh] = a.id
	return &models.Session{
		UserID:       a.id,
		Email:        a.email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    b.Base.Add(time.Hour),
	}
}

func (b *Backend) SignUp(email, password string) (*models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[email]; ok {
		return nil, errors.New(`response status code 422: {"code":422,"msg":"User already registered"}`)
	}
	if len(password) < 6 {
		return nil, errors.New(`response status code 422: {"code":422,"msg":"Password should be at least 6 characters."}`)
	}
	a := account{id: uuid.New(), email: email, password: password}
	b.accounts[email] = a
	if !b.AutoVerify {
		return nil, nil
	}
	return b.issue(a), nil
}

func (b *Backend) SignIn(email, password string) (*models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[email]
	if !ok || a.password != password {
		return nil, ErrBadCredentials
	}
	return b.issue(a), nil
}

func (b *Backend) Refresh(refreshToken string) (*models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failRefresh {
		return nil, errors.New(`response status code 400: {"error_description":"Invalid Refresh Token"}`)
	}
	id, ok := b.refresh[refreshToken]
	if !ok {
		return nil, errors.New("unknown refresh token")
	}
	delete(b.refresh, refreshToken)
	for _, a := range b.accounts {
		if a.id == id {
			return b.issue(a), nil
		}
	}
	return nil, errors.New("account vanished")
}

func (b *Backend) SignOut(accessToken string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	delete(b.tokens, accessToken)
	return nil
}

func (b *Backend) SelectIdeas(accessToken string) ([]models.Idea, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectCalls++
	if b.failSelect != nil {
		return nil, b.failSelect
	}
	owner, ok := b.tokens[accessToken]
	if !ok {
		return nil, errors.New("response status code 401: JWT expired")
	}

	var out []models.Idea
	for _, row := range b.rows {
		if b.LeakRows || row.UserID == owner {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *Backend) InsertIdea(accessToken string, idea models.NewIdea) ([]models.Idea, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insertCalls++
	if b.failInsert != nil {
		return nil, b.failInsert
	}
	owner, ok := b.tokens[accessToken]
	if !ok {
		return nil, errors.New("response status code 401: JWT expired")
	}
	if owner != idea.UserID {
		return nil, errors.New(`response status code 403: {"message":"new row violates row-level security policy for table \"ideas\""}`)
	}

	b.nextID++
	row := models.Idea{
		ID:        b.nextID,
		Content:   idea.Content,
		CreatedAt: b.Base.Add(time.Duration(b.nextID) * time.Minute),
		UserID:    idea.UserID,
	}
	b.rows = append(b.rows, row)
	return []models.Idea{row}, nil
}
