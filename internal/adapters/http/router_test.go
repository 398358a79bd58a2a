package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
	"github.com/score-labs/score-backend/internal/core/usecase"
)

type userRepoFake struct {
	users map[string]*domain.User
}

func (f *userRepoFake) CreateUser(_ context.Context, user *domain.User) error {
	if f.users == nil {
		f.users = map[string]*domain.User{}
	}
	f.users[user.ID] = user
	return nil
}

func (f *userRepoFake) GetUser(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrUserNotFound, "get user", errors.New(id))
	}
	return user, nil
}

func (f *userRepoFake) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.WrapError(domain.ErrUserNotFound, "get user by username", errors.New(username))
}

type deckRepoFake struct {
	deck    *domain.Deck
	deleted []string
}

func (f *deckRepoFake) CreateDeck(_ context.Context, deck *domain.Deck) error {
	f.deck = deck
	return nil
}

func (f *deckRepoFake) GetDeck(_ context.Context, id string) (*domain.Deck, error) {
	if f.deck == nil || f.deck.ID != id {
		return nil, domain.WrapError(domain.ErrDeckNotFound, "get deck", errors.New(id))
	}
	return f.deck, nil
}

func (f *deckRepoFake) ListDecks(context.Context, string) ([]domain.Deck, error) { return nil, nil }
func (f *deckRepoFake) DeleteDeck(_ context.Context, id, _ string) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *deckRepoFake) SaveSyllabusTopics(context.Context, string, []string) error { return nil }
func (f *deckRepoFake) RecordIngestedFile(context.Context, domain.IngestedFile) error {
	return nil
}
func (f *deckRepoFake) ListIngestedFiles(context.Context, string) ([]domain.IngestedFile, error) {
	return nil, nil
}
func (f *deckRepoFake) LogQuery(context.Context, domain.QueryLogEntry) error { return nil }

type vectorFake struct {
	deletedNamespaces []domain.Namespace
}

func (f *vectorFake) Upsert(context.Context, domain.Namespace, []string, [][]float32, []map[string]string) error {
	return nil
}
func (f *vectorFake) Query(context.Context, domain.Namespace, []float32, int) ([]domain.RetrievedDocument, error) {
	return nil, nil
}
func (f *vectorFake) Count(context.Context, domain.Namespace) (int, error) { return 0, nil }
func (f *vectorFake) DeleteNamespace(_ context.Context, ns domain.Namespace) error {
	f.deletedNamespaces = append(f.deletedNamespaces, ns)
	return nil
}

type sessionFake struct{}

func (sessionFake) GetOrCreate(userID, deckID string) *domain.Session {
	return &domain.Session{UserID: userID, DeckID: deckID}
}
func (sessionFake) Get(string, string) (*domain.Session, bool) { return nil, false }
func (sessionFake) Save(*domain.Session)                       {}
func (sessionFake) Delete(string, string)                      {}

type askFake struct {
	answer *domain.Answer
	err    error
}

func (f *askFake) Ask(_ context.Context, _, _, query string, pace domain.Pace) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	answer := *f.answer
	answer.Text = query + " / " + string(pace)
	return &answer, nil
}

type uploaderFake struct {
	filenames []string
	err       error
}

func (f *uploaderFake) Upload(_ context.Context, _, _ string, files []ports.UploadedFile) (ports.IngestionJob, error) {
	if f.err != nil {
		return ports.IngestionJob{}, f.err
	}
	for _, file := range files {
		f.filenames = append(f.filenames, file.Filename)
	}
	return ports.IngestionJob{JobID: "job-1"}, nil
}

type fixture struct {
	handler  http.Handler
	users    *userRepoFake
	decks    *deckRepoFake
	vectors  *vectorFake
	uploader *uploaderFake
}

func newFixture(ask ports.QuestionAnswerer) *fixture {
	users := &userRepoFake{}
	decks := &deckRepoFake{}
	vectors := &vectorFake{}
	uploader := &uploaderFake{}
	deckUC := usecase.NewDeckUseCase(users, decks, vectors, nil, sessionFake{})
	router := NewRouter("api-test", deckUC, uploader, ask, nil, nil, nil)
	return &fixture{
		handler:  router.Handler(),
		users:    users,
		decks:    decks,
		vectors:  vectors,
		uploader: uploader,
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	fx := newFixture(nil)
	rec := doJSON(t, fx.handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestCreateUser(t *testing.T) {
	fx := newFixture(nil)
	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/users", map[string]string{
		"username": "sam",
		"email":    "sam@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Username != "sam" || user.ID == "" {
		t.Fatalf("user = %+v", user)
	}
}

func TestCreateUserEmptyUsername(t *testing.T) {
	fx := newFixture(nil)
	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/users", map[string]string{"username": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetDeckForeignUserForbidden(t *testing.T) {
	fx := newFixture(nil)
	fx.decks.deck = &domain.Deck{ID: "deck-1", UserID: "owner"}

	rec := doJSON(t, fx.handler, http.MethodGet, "/v1/users/intruder/decks/deck-1", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetDeckMissingIsNotFound(t *testing.T) {
	fx := newFixture(nil)
	rec := doJSON(t, fx.handler, http.MethodGet, "/v1/users/user-1/decks/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeleteDeckDropsNamespace(t *testing.T) {
	fx := newFixture(nil)
	fx.decks.deck = &domain.Deck{ID: "deck-1", UserID: "user-1"}

	rec := doJSON(t, fx.handler, http.MethodDelete, "/v1/users/user-1/decks/deck-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if len(fx.vectors.deletedNamespaces) != 1 {
		t.Fatalf("namespace not dropped: %+v", fx.vectors.deletedNamespaces)
	}
}

func TestAskRequiresQuery(t *testing.T) {
	fx := newFixture(&askFake{answer: &domain.Answer{}})
	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/users/u/decks/d/ask", map[string]string{"query": " "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAskNormalizesPace(t *testing.T) {
	fx := newFixture(&askFake{answer: &domain.Answer{Strategy: domain.StrategyLocal, InScope: true}})
	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/users/u/decks/d/ask", map[string]string{
		"query": "what is paging",
		"pace":  "TURBO",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var answer domain.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(answer.Text, "/ medium") {
		t.Fatalf("pace not normalized: %q", answer.Text)
	}
}

func TestAskTemporaryFailureMapsTo503(t *testing.T) {
	fx := newFixture(&askFake{err: domain.WrapError(domain.ErrTemporary, "ask", errors.New("oracle down"))})
	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/users/u/decks/d/ask", map[string]string{"query": "q"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadStagesMultipartFiles(t *testing.T) {
	fx := newFixture(nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", "notes.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u/decks/d/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if len(fx.uploader.filenames) != 1 || fx.uploader.filenames[0] != "notes.pdf" {
		t.Fatalf("uploader got %v", fx.uploader.filenames)
	}
}
