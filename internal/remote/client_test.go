package remote

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/strrl/idea-vault/internal/remote/remotetest"
	"github.com/strrl/idea-vault/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []models.AuthEvent
}

func (r *eventRecorder) listen(e models.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) kinds() []models.AuthEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuthEventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *eventRecorder) last() models.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClient(t *testing.T, backend *remotetest.Backend, sessionPath string) (*Client, *clock) {
	t.Helper()
	clk := &clock{now: backend.Base}
	client := NewClient(backend, backend, NewSessionStore(sessionPath), WithClock(clk.Now))
	t.Cleanup(func() { _ = client.Close() })
	return client, clk
}

func TestSignInStoresSessionAndNotifies(t *testing.T) {
	backend := remotetest.NewBackend()
	userID := backend.AddAccount("ana@example.com", "secreto123")
	path := filepath.Join(t.TempDir(), "session.toml")
	client, _ := newTestClient(t, backend, path)

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	require.NoError(t, client.SignIn(context.Background(), "ana@example.com", "secreto123"))

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, "ana@example.com", session.Email)

	assert.Equal(t, []models.AuthEventKind{models.AuthSignedIn}, rec.kinds())
	require.NotNil(t, rec.last().Session)
	assert.Equal(t, userID, rec.last().Session.UserID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sessionFileMode), info.Mode().Perm())
}

func TestSignInWrongPasswordKeepsSessionAbsent(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	err := client.SignIn(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", AuthErrorMessage(err))

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, rec.kinds())
}

func TestSignUpPendingVerificationCreatesNoSession(t *testing.T) {
	backend := remotetest.NewBackend()
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	require.NoError(t, client.SignUp(context.Background(), "nuevo@example.com", "secreto123"))

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, rec.kinds())

	err = client.SignUp(context.Background(), "nuevo@example.com", "secreto123")
	require.Error(t, err)
	assert.Equal(t, "User already registered", AuthErrorMessage(err))
}

func TestSignUpWithAutoVerifySignsIn(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AutoVerify = true
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	require.NoError(t, client.SignUp(context.Background(), "nuevo@example.com", "secreto123"))

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, []models.AuthEventKind{models.AuthSignedIn}, rec.kinds())
}

func TestAccountIdentifierStableAcrossSignIns(t *testing.T) {
	backend := remotetest.NewBackend()
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))
	ctx := context.Background()

	require.NoError(t, client.SignUp(ctx, "ana@example.com", "secreto123"))
	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))
	first, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, client.SignOut(ctx))
	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))
	second, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
}

func TestSignOutClearsSessionAndNotifies(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	path := filepath.Join(t.TempDir(), "session.toml")
	client, _ := newTestClient(t, backend, path)
	ctx := context.Background()

	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	require.NoError(t, client.SignOut(ctx))
	assert.Equal(t, 1, backend.LogoutCalls())
	assert.Equal(t, []models.AuthEventKind{models.AuthSignedOut}, rec.kinds())
	assert.Nil(t, rec.last().Session)

	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Signing out again is a no-op
	require.NoError(t, client.SignOut(ctx))
	assert.Equal(t, 1, backend.LogoutCalls())
	assert.Len(t, rec.kinds(), 1)
}

func TestGetSessionRestoresPersistedSession(t *testing.T) {
	backend := remotetest.NewBackend()
	userID := backend.AddAccount("ana@example.com", "secreto123")
	path := filepath.Join(t.TempDir(), "session.toml")

	first, _ := newTestClient(t, backend, path)
	require.NoError(t, first.SignIn(context.Background(), "ana@example.com", "secreto123"))

	second, _ := newTestClient(t, backend, path)
	rec := &eventRecorder{}
	second.OnAuthStateChange(rec.listen)

	session, err := second.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.Empty(t, rec.kinds(), "restoring a stored session is not a transition")
}

func TestGetSessionRefreshesExpiredToken(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client, clk := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))
	ctx := context.Background()

	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))
	before, err := client.GetSession(ctx)
	require.NoError(t, err)

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	clk.Advance(2 * time.Hour)
	after, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.Equal(t, before.UserID, after.UserID)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.Equal(t, []models.AuthEventKind{models.AuthTokenRefreshed}, rec.kinds())
}

func TestGetSessionDropsSessionWhenRefreshFails(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	path := filepath.Join(t.TempDir(), "session.toml")
	client, clk := newTestClient(t, backend, path)
	ctx := context.Background()

	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))

	rec := &eventRecorder{}
	client.OnAuthStateChange(rec.listen)

	backend.FailRefresh(true)
	clk.Advance(2 * time.Hour)

	session, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, []models.AuthEventKind{models.AuthSignedOut}, rec.kinds())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetSessionIgnoresCorruptSessionFile(t *testing.T) {
	backend := remotetest.NewBackend()
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o600))

	client, _ := newTestClient(t, backend, path)
	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestListIdeasRequiresSession(t *testing.T) {
	backend := remotetest.NewBackend()
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))

	_, err := client.ListIdeas(context.Background())
	assert.ErrorIs(t, err, models.ErrNoSession)

	_, err = client.InsertIdea(context.Background(), models.NewIdea{Content: "hola", UserID: uuid.New()})
	assert.ErrorIs(t, err, models.ErrNoSession)
	assert.Zero(t, backend.SelectCalls())
	assert.Zero(t, backend.InsertCalls())
}

func TestIdeasAreScopedToOwnerAndNewestFirst(t *testing.T) {
	backend := remotetest.NewBackend()
	anaID := backend.AddAccount("ana@example.com", "secreto123")
	benID := backend.AddAccount("ben@example.com", "secreto456")
	ctx := context.Background()

	ana, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "ana.toml"))
	ben, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "ben.toml"))
	require.NoError(t, ana.SignIn(ctx, "ana@example.com", "secreto123"))
	require.NoError(t, ben.SignIn(ctx, "ben@example.com", "secreto456"))

	_, err := ana.InsertIdea(ctx, models.NewIdea{Content: "primera", UserID: anaID})
	require.NoError(t, err)
	_, err = ben.InsertIdea(ctx, models.NewIdea{Content: "de ben", UserID: benID})
	require.NoError(t, err)
	third, err := ana.InsertIdea(ctx, models.NewIdea{Content: "segunda\ncon salto", UserID: anaID})
	require.NoError(t, err)
	assert.Equal(t, "segunda\ncon salto", third.Content)
	assert.NotZero(t, third.ID)

	ideas, err := ana.ListIdeas(ctx)
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, "segunda\ncon salto", ideas[0].Content)
	assert.Equal(t, "primera", ideas[1].Content)
	for _, idea := range ideas {
		assert.Equal(t, anaID, idea.UserID)
	}

	again, err := ana.ListIdeas(ctx)
	require.NoError(t, err)
	assert.Equal(t, ideas, again)
}

func TestListIdeasDropsRowsOfOtherAccounts(t *testing.T) {
	backend := remotetest.NewBackend()
	anaID := backend.AddAccount("ana@example.com", "secreto123")
	ctx := context.Background()

	ana, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "ana.toml"))
	require.NoError(t, ana.SignIn(ctx, "ana@example.com", "secreto123"))
	_, err := ana.InsertIdea(ctx, models.NewIdea{Content: "mía", UserID: anaID})
	require.NoError(t, err)

	backend.AddRow(models.Idea{ID: 99, Content: "ajena", UserID: uuid.New(), CreatedAt: backend.Base})
	backend.LeakRows = true

	ideas, err := ana.ListIdeas(ctx)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "mía", ideas[0].Content)
}

func TestListIdeasReturnsEmptySliceForNewAccount(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, client.SignIn(context.Background(), "ana@example.com", "secreto123"))

	ideas, err := client.ListIdeas(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ideas)
	assert.Empty(t, ideas)
}

func TestInsertIdeaRejectsBlankContentLocally(t *testing.T) {
	backend := remotetest.NewBackend()
	userID := backend.AddAccount("ana@example.com", "secreto123")
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, client.SignIn(context.Background(), "ana@example.com", "secreto123"))

	for _, content := range []string{"", "   ", "\n\t \n"} {
		_, err := client.InsertIdea(context.Background(), models.NewIdea{Content: content, UserID: userID})
		assert.ErrorIs(t, err, models.ErrEmptyContent)
	}
	assert.Zero(t, backend.InsertCalls())
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client, _ := newTestClient(t, backend, filepath.Join(t.TempDir(), "session.toml"))

	rec := &eventRecorder{}
	sub := client.OnAuthStateChange(rec.listen)
	assert.Equal(t, 1, client.bus.count())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, client.bus.count())

	require.NoError(t, client.SignIn(context.Background(), "ana@example.com", "secreto123"))
	assert.Empty(t, rec.kinds())

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Unsubscribe)
}

func TestSyncFromStoreReportsExternalChanges(t *testing.T) {
	backend := remotetest.NewBackend()
	anaID := backend.AddAccount("ana@example.com", "secreto123")
	benID := backend.AddAccount("ben@example.com", "secreto456")
	path := filepath.Join(t.TempDir(), "session.toml")
	ctx := context.Background()

	watching, _ := newTestClient(t, backend, path)
	other, _ := newTestClient(t, backend, path)

	rec := &eventRecorder{}
	watching.OnAuthStateChange(rec.listen)

	// Own writes are not reported twice
	require.NoError(t, watching.SignIn(ctx, "ana@example.com", "secreto123"))
	watching.syncFromStore()
	assert.Equal(t, []models.AuthEventKind{models.AuthSignedIn}, rec.kinds())

	require.NoError(t, other.SignIn(ctx, "ben@example.com", "secreto456"))
	watching.syncFromStore()
	assert.Equal(t, models.AuthSignedIn, rec.last().Kind)
	assert.Equal(t, benID, rec.last().Session.UserID)
	assert.NotEqual(t, anaID, benID)

	require.NoError(t, other.SignOut(ctx))
	watching.syncFromStore()
	assert.Equal(t, models.AuthSignedOut, rec.last().Kind)

	session, err := watching.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestWatchSessionFileDeliversExternalSignOut(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	path := filepath.Join(t.TempDir(), "state", "session.toml")
	ctx := context.Background()

	watching, _ := newTestClient(t, backend, path)
	require.NoError(t, watching.SignIn(ctx, "ana@example.com", "secreto123"))
	require.NoError(t, watching.WatchSessionFile())
	require.NoError(t, watching.WatchSessionFile())

	rec := &eventRecorder{}
	watching.OnAuthStateChange(rec.listen)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		kinds := rec.kinds()
		return len(kinds) == 1 && kinds[0] == models.AuthSignedOut
	}, 3*time.Second, 20*time.Millisecond)
}
