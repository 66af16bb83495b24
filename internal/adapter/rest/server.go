package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"browser-actor/internal/actor/action"
	"browser-actor/internal/application/port/input"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

// JournalControl is the part of the journal the HTTP surface drives.
type JournalControl interface {
	LogBeginAsyncEvent(id uint64, taskID entity.TaskID, event, details string)
	LogEndAsyncEvent(id uint64, details string) bool
	LogInstantEvent(taskID entity.TaskID, event, details string)
	Start(maxBytes int)
	Stop()
	Snapshot(maxBytes int, clear bool) []byte
}

type Server struct {
	tasks    input.TaskService
	tabs     output.TabRegistry
	journal  JournalControl
	gatherer prometheus.Gatherer
	logger   output.LoggerPort

	journalMaxBytes int
	accessLog       bool
}

type Option func(*Server)

// WithAccessLog enables structured request logging on stdout.
func WithAccessLog() Option {
	return func(s *Server) { s.accessLog = true }
}

func WithJournalMaxBytes(n int) Option {
	return func(s *Server) { s.journalMaxBytes = n }
}

func NewServer(
	tasks input.TaskService,
	tabs output.TabRegistry,
	journal JournalControl,
	gatherer prometheus.Gatherer,
	logger output.LoggerPort,
	opts ...Option,
) *Server {
	s := &Server{
		tasks:           tasks,
		tabs:            tabs,
		journal:         journal,
		gatherer:        gatherer,
		logger:          logger.WithField("component", "http"),
		journalMaxBytes: 4 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	if s.accessLog {
		r.Use(httplog.RequestLogger(httplog.NewLogger("actor", httplog.Options{
			JSON:    true,
			Concise: true,
		})))
	}
	r.Use(middleware.Recoverer)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.createTask)
		r.Get("/", s.listTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Post("/act", s.act)
			r.Post("/stop", s.stopTask)
			r.Post("/pause", s.pauseTask)
			r.Post("/resume", s.resumeTask)
			r.Get("/observation", s.observe)
		})
	})
	r.Post("/act", s.actInFocusedTab)
	r.Get("/tabs", s.listTabs)

	r.Route("/journal", func(r chi.Router) {
		r.Post("/start", s.startJournal)
		r.Post("/stop", s.stopJournal)
		r.Get("/snapshot", s.snapshotJournal)
		r.Post("/log", s.logInstant)
		r.Post("/events/{eventID}/begin", s.beginEvent)
		r.Post("/events/{eventID}/end", s.endEvent)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps task service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrTaskStopped), errors.Is(err, entity.ErrTabClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func taskID(r *http.Request) (entity.TaskID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, errors.New("task id must be an integer")
	}
	return entity.TaskID(id), nil
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// decodeBody fills v from the request body. An empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

type createTaskRequest struct {
	Title string `json:"title"`
}

type createTaskResponse struct {
	TaskID entity.TaskID `json:"task_id"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	info := s.tasks.CreateTask(req.Title)
	s.writeJSON(w, http.StatusCreated, createTaskResponse{TaskID: info.ID})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tasks.ListTasks())
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	info, ok := s.tasks.GetTask(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, entity.ErrTaskNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) parseAction(w http.ResponseWriter, r *http.Request) (*action.Action, bool) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	a, err := action.ParseAction(data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return a, true
}

func (s *Server) act(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	a, ok := s.parseAction(w, r)
	if !ok {
		return
	}
	res, err := s.tasks.Act(r.Context(), id, a)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) actInFocusedTab(w http.ResponseWriter, r *http.Request) {
	a, ok := s.parseAction(w, r)
	if !ok {
		return
	}
	res, err := s.tasks.ActInFocusedTab(r.Context(), a)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) stopTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.tasks.StopTask(id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pauseTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.tasks.PauseTask(id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type observationResponse struct {
	Observation *entity.PageContent `json:"observation"`
}

func (s *Server) resumeTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	obs, err := s.tasks.ResumeTask(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, observationResponse{Observation: obs})
}

func (s *Server) observe(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	obs, err := s.tasks.Observe(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, observationResponse{Observation: obs})
}

func (s *Server) listTabs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tabs.Tabs())
}

type startJournalRequest struct {
	MaxBytes int `json:"max_bytes"`
}

func (s *Server) startJournal(w http.ResponseWriter, r *http.Request) {
	req := startJournalRequest{MaxBytes: s.journalMaxBytes}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.MaxBytes <= 0 {
		req.MaxBytes = s.journalMaxBytes
	}
	s.journal.Start(req.MaxBytes)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stopJournal(w http.ResponseWriter, r *http.Request) {
	s.journal.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// snapshotJournal streams the captured JSON lines. 404 means capture is
// not running.
func (s *Server) snapshotJournal(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.journalMaxBytes
	if v := r.URL.Query().Get("max_bytes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("max_bytes must be a positive integer"))
			return
		}
		maxBytes = n
	}
	clearAfter := r.URL.Query().Get("clear") == "true"

	data := s.journal.Snapshot(maxBytes, clearAfter)
	if data == nil {
		s.writeError(w, http.StatusNotFound, errors.New("journal capture is not running"))
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type journalEventRequest struct {
	TaskID  entity.TaskID `json:"task_id"`
	Event   string        `json:"event"`
	Details string        `json:"details"`
}

func (s *Server) logInstant(w http.ResponseWriter, r *http.Request) {
	var req journalEventRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Event == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("event is required"))
		return
	}
	s.journal.LogInstantEvent(req.TaskID, req.Event, req.Details)
	w.WriteHeader(http.StatusNoContent)
}

func eventID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		return 0, errors.New("event id must be an unsigned integer")
	}
	return id, nil
}

func (s *Server) beginEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req journalEventRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Event == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("event is required"))
		return
	}
	s.journal.LogBeginAsyncEvent(id, req.TaskID, req.Event, req.Details)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) endEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req journalEventRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.journal.LogEndAsyncEvent(id, req.Details) {
		s.writeError(w, http.StatusNotFound, errors.New("no open event with that id"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
