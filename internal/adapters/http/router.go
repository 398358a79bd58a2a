package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
	"github.com/score-labs/score-backend/internal/core/usecase"
	"github.com/score-labs/score-backend/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

// Router exposes the study assistant over JSON HTTP. All deck routes are
// nested under the owning user so ownership is explicit in the URL.
type Router struct {
	service  string
	decks    *usecase.DeckUseCase
	uploader ports.DeckUploader
	ask      ports.QuestionAnswerer
	practice *usecase.PracticeGenerator
	teach    *usecase.TeachUseCase
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	service string,
	decks *usecase.DeckUseCase,
	uploader ports.DeckUploader,
	ask ports.QuestionAnswerer,
	practice *usecase.PracticeGenerator,
	teach *usecase.TeachUseCase,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:  service,
		decks:    decks,
		uploader: uploader,
		ask:      ask,
		practice: practice,
		teach:    teach,
		metrics:  serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/users", rt.createUser)
	mux.HandleFunc("GET /v1/users/{user_id}", rt.getUser)

	mux.HandleFunc("POST /v1/users/{user_id}/decks", rt.createDeck)
	mux.HandleFunc("GET /v1/users/{user_id}/decks", rt.listDecks)
	mux.HandleFunc("GET /v1/users/{user_id}/decks/{deck_id}", rt.getDeck)
	mux.HandleFunc("DELETE /v1/users/{user_id}/decks/{deck_id}", rt.deleteDeck)
	mux.HandleFunc("GET /v1/users/{user_id}/decks/{deck_id}/files", rt.listFiles)
	mux.HandleFunc("GET /v1/users/{user_id}/decks/{deck_id}/coverage", rt.topicCoverage)
	mux.HandleFunc("POST /v1/users/{user_id}/decks/{deck_id}/upload", rt.upload)
	mux.HandleFunc("POST /v1/users/{user_id}/decks/{deck_id}/ask", rt.askDeck)
	mux.HandleFunc("POST /v1/users/{user_id}/decks/{deck_id}/practice", rt.generatePractice)
	mux.HandleFunc("POST /v1/users/{user_id}/decks/{deck_id}/teach/start", rt.teachStart)
	mux.HandleFunc("POST /v1/users/{user_id}/decks/{deck_id}/teach/input", rt.teachInput)
	mux.HandleFunc("POST /v1/users/{user_id}/decks/{deck_id}/teach/resume", rt.teachResume)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return
	}

	user, err := rt.decks.CreateUser(r.Context(), strings.TrimSpace(req.Username), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (rt *Router) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := rt.decks.GetUser(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) createDeck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Subject  string `json:"subject"`
		Syllabus string `json:"syllabus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return
	}

	deck, err := rt.decks.CreateDeck(r.Context(), r.PathValue("user_id"), req.Name, req.Subject, req.Syllabus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}

func (rt *Router) listDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := rt.decks.ListDecks(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if decks == nil {
		decks = []domain.Deck{}
	}
	writeJSON(w, http.StatusOK, decks)
}

func (rt *Router) getDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := rt.decks.GetDeck(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

func (rt *Router) deleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := rt.decks.DeleteDeck(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := rt.decks.ListIngestedFiles(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []domain.IngestedFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (rt *Router) topicCoverage(w http.ResponseWriter, r *http.Request) {
	report, err := rt.decks.TopicCoverage(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "parse multipart", err))
		return
	}

	var files []ports.UploadedFile
	var closers []interface{ Close() error }
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "open upload", err))
			return
		}
		closers = append(closers, f)
		files = append(files, ports.UploadedFile{Filename: header.Filename, Body: f})
	}

	job, err := rt.uploader.Upload(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"), files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) askDeck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Pace  string `json:"pace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "ask", errQueryRequired))
		return
	}

	start := time.Now()
	answer, err := rt.ask.Ask(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"), req.Query, domain.NormalizePace(req.Pace))
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer(rt.service, string(answer.Strategy), answer.CoverageConfidence, time.Since(start))
		if !answer.InScope {
			rt.metrics.RecordOutOfScope(rt.service)
		}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) generatePractice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
		Pace  string `json:"pace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "practice", errTopicRequired))
		return
	}

	set, err := rt.practice.Generate(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"), req.Topic, domain.NormalizePace(req.Pace))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"set":       set,
		"formatted": usecase.FormatPracticeSet(set),
	})
}

func (rt *Router) teachStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
		Pace  string `json:"pace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return
	}

	reply, err := rt.teach.Start(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"), req.Topic, domain.NormalizePace(req.Pace))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) teachInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "teach", errMessageRequired))
		return
	}

	reply, err := rt.teach.HandleInput(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) teachResume(w http.ResponseWriter, r *http.Request) {
	reply, err := rt.teach.Resume(r.Context(), r.PathValue("user_id"), r.PathValue("deck_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
