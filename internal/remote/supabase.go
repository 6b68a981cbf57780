package remote

import (
	"fmt"
	"time"

	"github.com/strrl/idea-vault/pkg/models"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const ideasTable = "ideas"

// AuthAPI is the part of the auth service the client calls
type AuthAPI interface {
	// SignUp returns a nil session when the account still needs email verification
	SignUp(email, password string) (*models.Session, error)
	SignIn(email, password string) (*models.Session, error)
	Refresh(refreshToken string) (*models.Session, error)
	SignOut(accessToken string) error
}

// IdeasAPI is the part of the data service the client calls. Every call
// acts as the account owning accessToken.
type IdeasAPI interface {
	SelectIdeas(accessToken string) ([]models.Idea, error)
	InsertIdea(accessToken string, idea models.NewIdea) ([]models.Idea, error)
}

// supabaseBackend talks to GoTrue and PostgREST through supabase-go
type supabaseBackend struct {
	url  string
	key  string
	anon *supabase.Client
}

var (
	_ AuthAPI  = (*supabaseBackend)(nil)
	_ IdeasAPI = (*supabaseBackend)(nil)
)

func newSupabaseBackend(url, key string) (*supabaseBackend, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &supabaseBackend{url: url, key: key, anon: client}, nil
}

// asUser returns a client whose data requests carry the user's JWT, so
// row-level policies see auth.uid()
func (b *supabaseBackend) asUser(accessToken string) (*supabase.Client, error) {
	client, err := supabase.NewClient(b.url, b.key, &supabase.ClientOptions{
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("create supabase user client: %w", err)
	}
	return client, nil
}

func (b *supabaseBackend) SignUp(email, password string) (*models.Session, error) {
	resp, err := b.anon.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	return sessionFromGoTrue(resp.Session), nil
}

func (b *supabaseBackend) SignIn(email, password string) (*models.Session, error) {
	resp, err := b.anon.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}
	return sessionFromGoTrue(resp.Session), nil
}

func (b *supabaseBackend) Refresh(refreshToken string) (*models.Session, error) {
	resp, err := b.anon.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return sessionFromGoTrue(resp.Session), nil
}

func (b *supabaseBackend) SignOut(accessToken string) error {
	return b.anon.Auth.WithToken(accessToken).Logout()
}

func (b *supabaseBackend) SelectIdeas(accessToken string) ([]models.Idea, error) {
	client, err := b.asUser(accessToken)
	if err != nil {
		return nil, err
	}

	var rows []models.Idea
	_, err = client.From(ideasTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select ideas: %w", err)
	}
	return rows, nil
}

func (b *supabaseBackend) InsertIdea(accessToken string, idea models.NewIdea) ([]models.Idea, error) {
	client, err := b.asUser(accessToken)
	if err != nil {
		return nil, err
	}

	var rows []models.Idea
	_, err = client.From(ideasTable).
		Insert([]models.NewIdea{idea}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("insert idea: %w", err)
	}
	return rows, nil
}

func sessionFromGoTrue(s types.Session) *models.Session {
	session := &models.Session{
		UserID:       s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return session
}
