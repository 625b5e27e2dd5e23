package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kodbank/apiserver/internal/events"
	"github.com/kodbank/apiserver/internal/storage"
	"github.com/kodbank/apiserver/internal/store"
	"github.com/kodbank/apiserver/internal/testutil"
	"github.com/kodbank/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) {
	p.events = append(p.events, evt)
}

func newAccountService(t *testing.T) (*AccountService, *store.UserRepository, *recordingPublisher) {
	t.Helper()
	conn := testutil.NewSQLite(t)
	repo := store.NewUserRepository(conn)
	publisher := &recordingPublisher{}
	return NewAccountService(repo, publisher), repo, publisher
}

func TestRegisterValidation(t *testing.T) {
	svc, _, publisher := newAccountService(t)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{name: "missing name", input: RegisterInput{Email: "a@example.com", Password: "pw"}},
		{name: "blank name", input: RegisterInput{Name: "   ", Email: "a@example.com", Password: "pw"}},
		{name: "missing email", input: RegisterInput{Name: "Ada", Password: "pw"}},
		{name: "missing password", input: RegisterInput{Name: "Ada", Email: "a@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	assert.Empty(t, publisher.events)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	svc, _, _ := newAccountService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: strings.Repeat("x", 73),
	})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, repo, publisher := newAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: " Ada ", Email: " ada@example.com ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", stored.PasswordHash)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TypeUserRegistered, publisher.events[0].Type)
	assert.Equal(t, user.ID, publisher.events[0].UserID)

	authed, err := svc.Authenticate(ctx, "ada@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ada@example.com", Password: "different"})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "right"})
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "ada@example.com", "wrong")
	_, unknownEmail := svc.Authenticate(ctx, "nobody@example.com", "right")

	var a, b *Error
	require.ErrorAs(t, wrongPassword, &a)
	require.ErrorAs(t, unknownEmail, &b)
	assert.Equal(t, KindAuth, a.Kind)
	assert.Equal(t, a.Kind, b.Kind)
	assert.Equal(t, a.Message, b.Message)

	_, err = svc.Authenticate(ctx, "", "right")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDeleteByEmail(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByEmail(ctx, "ada@example.com"))
	_, err = svc.GetByID(ctx, user.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindNotFound, KindOf(svc.DeleteByEmail(ctx, "ada@example.com")))
}

type fakeUsers struct {
	UserRepository
	user types.User
	err  error
}

func (f fakeUsers) GetByID(ctx context.Context, id int) (types.User, error) {
	return f.user, f.err
}

type fakeStats struct {
	err error
}

func (f fakeStats) GetByUserID(ctx context.Context, userID int) (types.UserStats, error) {
	return types.UserStats{UserID: userID}, f.err
}

type fakeTransactions struct {
	list []types.Transaction
}

func (f fakeTransactions) ListRecent(ctx context.Context, userID, limit int) ([]types.Transaction, error) {
	return f.list, nil
}

func (f fakeTransactions) ListAll(ctx context.Context, userID int) ([]types.Transaction, error) {
	return f.list, nil
}

func TestDashboardMissingStatsIsNotAnError(t *testing.T) {
	svc := NewDashboardService(
		fakeUsers{user: types.User{ID: 1, Name: "Ada", Email: "ada@example.com"}},
		fakeStats{err: store.ErrNotFound},
		fakeTransactions{list: []types.Transaction{}},
	)

	dashboard, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, dashboard.Stats)
	assert.Equal(t, "Ada", dashboard.User.Name)
}

func TestDashboardErrors(t *testing.T) {
	svc := NewDashboardService(fakeUsers{err: store.ErrNotFound}, fakeStats{}, fakeTransactions{})
	_, err := svc.Get(context.Background(), 1)
	assert.Equal(t, KindNotFound, KindOf(err))

	svc = NewDashboardService(fakeUsers{user: types.User{ID: 1}}, fakeStats{err: errors.New("disk on fire")}, fakeTransactions{})
	_, err = svc.Get(context.Background(), 1)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.NotContains(t, err.(*Error).Message, "disk")
}

type orderedChat struct {
	log      *[]string
	messages []types.ChatMessage
	failRole types.ChatRole
}

func (c *orderedChat) Create(ctx context.Context, m types.ChatMessage) (types.ChatMessage, error) {
	if m.Role == c.failRole {
		return types.ChatMessage{}, errors.New("insert failed")
	}
	*c.log = append(*c.log, "store:"+string(m.Role))
	m.ID = len(c.messages) + 1
	c.messages = append(c.messages, m)
	return m, nil
}

func (c *orderedChat) ListOldest(ctx context.Context, userID, limit int) ([]types.ChatMessage, error) {
	if len(c.messages) > limit {
		return c.messages[:limit], nil
	}
	return c.messages, nil
}

type orderedGenerator struct {
	log   *[]string
	reply string
}

func (g orderedGenerator) Generate(ctx context.Context, text string) string {
	*g.log = append(*g.log, "generate")
	return g.reply
}

func TestChatSendOrdering(t *testing.T) {
	var log []string
	repo := &orderedChat{log: &log}
	publisher := &recordingPublisher{}
	svc := NewChatService(repo, orderedGenerator{log: &log, reply: "Save 20%."}, publisher)

	reply, err := svc.Send(context.Background(), 5, "How much should I save?")
	require.NoError(t, err)
	assert.Equal(t, "Save 20%.", reply)
	assert.Equal(t, []string{"store:user", "generate", "store:assistant"}, log)

	require.Len(t, repo.messages, 2)
	assert.Equal(t, "How much should I save?", repo.messages[0].Message)
	assert.Equal(t, "Save 20%.", repo.messages[1].Message)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TypeChatExchanged, publisher.events[0].Type)
}

func TestChatSendValidation(t *testing.T) {
	var log []string
	repo := &orderedChat{log: &log}
	svc := NewChatService(repo, orderedGenerator{log: &log}, nil)

	_, err := svc.Send(context.Background(), 5, "  \n ")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, log)
}

func TestChatSendSkipsGeneratorWhenUserTurnFails(t *testing.T) {
	var log []string
	repo := &orderedChat{log: &log, failRole: types.ChatRoleUser}
	svc := NewChatService(repo, orderedGenerator{log: &log}, nil)

	_, err := svc.Send(context.Background(), 5, "hello")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Empty(t, log)
}

type memoryObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *memoryObjects) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestStatementExportAndOpen(t *testing.T) {
	objects := newMemoryObjects()
	svc := NewStatementService(fakeTransactions{list: OpeningTransactions()}, objects)
	ctx := context.Background()

	statement, err := svc.Export(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 4, statement.Count)
	assert.True(t, strings.HasPrefix(statement.Key, "statements/12/"))
	assert.Equal(t, "text/csv", objects.types[statement.Key])

	reader, err := svc.Open(ctx, 12, statement.ID)
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "id,date,title,category,type,status,amount", lines[0])
	assert.Contains(t, lines[2], "Food & Drink")
	assert.True(t, strings.HasSuffix(lines[2], ",-15.50"))

	_, err = svc.Open(ctx, 13, statement.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.Open(ctx, 12, "../../etc/passwd")
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, svc.Delete(ctx, 12, statement.ID))
	_, err = svc.Open(ctx, 12, statement.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestStatementWithoutStorage(t *testing.T) {
	svc := NewStatementService(fakeTransactions{}, nil)

	_, err := svc.Export(context.Background(), 1)
	assert.Equal(t, KindUnavailable, KindOf(err))
	_, err = svc.Open(context.Background(), 1, "9b2f6c1e-8d7a-4f3b-9c2d-1e0f5a6b7c8d")
	assert.Equal(t, KindUnavailable, KindOf(err))
}
