package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/vitorcapdeville/financas/pkg/csv"
	"github.com/vitorcapdeville/financas/pkg/importer"
	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/parser"
	"github.com/vitorcapdeville/financas/pkg/repository"
	"github.com/vitorcapdeville/financas/pkg/rules"
	"github.com/vitorcapdeville/financas/pkg/transactions"
	"github.com/vitorcapdeville/financas/pkg/ynab"
)

const maxUploadSize = 32 << 20

// Server exposes the import, transaction, tag, setting and rule use cases over
// HTTP.
type Server struct {
	logger       *log.Logger
	router       *mux.Router
	registry     *parser.Registry
	importer     *importer.Importer
	transactions *transactions.Service
	tags         *transactions.TagService
	settings     *transactions.SettingService
	rules        *rules.Service
	userID       int64
}

// New creates a new HTTP server backed by store. userID is used when a
// request does not name one.
func New(logger *log.Logger, registry *parser.Registry, store repository.Store, userID int64) *Server {
	s := &Server{
		logger:       logger,
		router:       mux.NewRouter().StrictSlash(true),
		registry:     registry,
		importer:     importer.New(registry, store, logger),
		transactions: transactions.NewService(store.Transactions(), store.Tags(), store.Settings(), logger),
		tags:         transactions.NewTagService(store.Tags()),
		settings:     transactions.NewSettingService(store.Settings()),
		rules:        rules.NewService(store.Rules(), store.Transactions(), store.Tags(), logger),
		userID:       userID,
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) setupRoutes() {
	r := s.router.PathPrefix("/api").Subrouter()

	r.HandleFunc("/parsers", s.withLogging(s.handleParsers)).Methods(http.MethodGet)
	r.HandleFunc("/import", s.withLogging(s.handleImport)).Methods(http.MethodPost)

	r.HandleFunc("/transactions", s.withLogging(s.handleListTransactions)).Methods(http.MethodGet)
	r.HandleFunc("/transactions", s.withLogging(s.handleCreateTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/export", s.withLogging(s.handleExport)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/summary", s.withLogging(s.handleSummary)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/categories", s.withLogging(s.handleCategories)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id:[0-9]+}", s.withLogging(s.handleGetTransaction)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id:[0-9]+}", s.withLogging(s.handleUpdateTransaction)).Methods(http.MethodPatch)
	r.HandleFunc("/transactions/{id:[0-9]+}/restore", s.withLogging(s.handleRestore)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id:[0-9]+}/tags", s.withLogging(s.handleTransactionTags)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id:[0-9]+}/tags/{tag:[0-9]+}", s.withLogging(s.handleAddTag)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id:[0-9]+}/tags/{tag:[0-9]+}", s.withLogging(s.handleRemoveTag)).Methods(http.MethodDelete)

	r.HandleFunc("/tags", s.withLogging(s.handleListTags)).Methods(http.MethodGet)
	r.HandleFunc("/tags", s.withLogging(s.handleCreateTag)).Methods(http.MethodPost)

	r.HandleFunc("/settings", s.withLogging(s.handleListSettings)).Methods(http.MethodGet)
	r.HandleFunc("/settings", s.withLogging(s.handleSaveSetting)).Methods(http.MethodPost)
	r.HandleFunc("/settings/{key}", s.withLogging(s.handleGetSetting)).Methods(http.MethodGet)
	r.HandleFunc("/settings/{key}", s.withLogging(s.handlePutSetting)).Methods(http.MethodPut)

	r.HandleFunc("/rules", s.withLogging(s.handleListRules)).Methods(http.MethodGet)
	r.HandleFunc("/rules", s.withLogging(s.handleCreateRule)).Methods(http.MethodPost)
	r.HandleFunc("/rules/apply", s.withLogging(s.handleApplyRules)).Methods(http.MethodPost)
	r.HandleFunc("/rules/{id:[0-9]+}", s.withLogging(s.handleGetRule)).Methods(http.MethodGet)
	r.HandleFunc("/rules/{id:[0-9]+}", s.withLogging(s.handleUpdateRule)).Methods(http.MethodPatch)
	r.HandleFunc("/rules/{id:[0-9]+}/apply", s.withLogging(s.handleApplyRule)).Methods(http.MethodPost)

	r.HandleFunc("/budgets", s.withLogging(s.handleBudgets)).Methods(http.MethodGet)
	r.HandleFunc("/budgets/{budget}/accounts", s.withLogging(s.handleBudgetAccounts)).Methods(http.MethodGet)
}

func (s *Server) handleParsers(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"status":  "success",
		"parsers": s.registry.Describe(),
	})
}

// ---------------- import ----------------

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	userID, err := s.formUserID(r.FormValue("user_id"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid user_id", err)
		return
	}
	password := r.FormValue("password")

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, http.StatusBadRequest, "at least one file is required", nil)
		return
	}

	files := make([]importer.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
			return
		}
		files = append(files, importer.File{Name: header.Filename, Data: data, Password: password})
	}

	batch, err := s.importer.ImportFiles(r.Context(), files, userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.logger.Info("import complete", "files", batch.TotalFiles, "failed", batch.Failed, "imported", batch.TotalImported)
	s.respond(w, http.StatusOK, batch)
}

// ---------------- transactions ----------------

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFilter(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	txs, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTransactions(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var body NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	in, err := body.toInput(s.userID)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	tx, err := s.transactions.Create(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.logger.Info("transaction created", "id", tx.ID, "description", tx.Description)
	s.respond(w, http.StatusCreated, toTransaction(tx))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFilter(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sum, err := s.transactions.Summary(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toSummary(sum))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFilter(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	cats, err := s.transactions.Categories(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, cats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFilter(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	txs, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transacoes.csv"`)
	if err := csv.Write(w, txs, nil); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTransaction(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch transactions.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	tx, err := s.transactions.Update(r.Context(), pathID(r, "id"), patch)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTransaction(tx))
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.RestoreOriginalAmount(r.Context(), pathID(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTransaction(tx))
}

func (s *Server) handleTransactionTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.transactions.Tags(r.Context(), pathID(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTags(tags))
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.AddTag(r.Context(), pathID(r, "id"), pathID(r, "tag"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTransaction(tx))
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.RemoveTag(r.Context(), pathID(r, "id"), pathID(r, "tag"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTransaction(tx))
}

// ---------------- tags ----------------

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.List(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toTags(tags))
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var body Tag
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	tag, err := s.tags.Create(r.Context(), body.Name, body.Color, body.Description)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, toTag(tag))
}

// ---------------- settings ----------------

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	list, err := s.settings.List(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	out := make([]Setting, len(list))
	for i, setting := range list {
		out[i] = toSetting(setting)
	}
	s.respond(w, http.StatusOK, out)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := s.settings.Get(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toSetting(setting))
}

func (s *Server) handleSaveSetting(w http.ResponseWriter, r *http.Request) {
	var body Setting
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.saveSetting(w, r, http.StatusCreated, body.Key, body.Value)
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	var body Setting
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.saveSetting(w, r, http.StatusOK, mux.Vars(r)["key"], body.Value)
}

func (s *Server) saveSetting(w http.ResponseWriter, r *http.Request, status int, key, value string) {
	setting, err := s.settings.Set(r.Context(), key, value)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.logger.Info("setting saved", "key", setting.Key, "value", setting.Value)
	s.respond(w, status, toSetting(setting))
}

// ---------------- rules ----------------

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	list, err := s.rules.List(r.Context(), activeOnly)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	out := make([]Rule, len(list))
	for i, rule := range list {
		out[i] = toRule(rule)
	}
	s.respond(w, http.StatusOK, out)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.rules.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toRule(rule))
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var params models.RuleParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rule, err := s.rules.Create(r.Context(), params)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, toRule(rule))
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var patch models.RulePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rule, err := s.rules.Update(r.Context(), pathID(r, "id"), patch)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, toRule(rule))
}

func (s *Server) handleApplyRule(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rules.ApplyRule(r.Context(), pathID(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, stats)
}

func (s *Server) handleApplyRules(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rules.ApplyAllActive(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, stats)
}

// ---------------- ynab ----------------

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.respondError(w, r, http.StatusBadRequest, "token required", nil)
		return
	}

	budgets, err := ynab.New(token).Budget().GetBudgets()
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to fetch budgets", err)
		return
	}
	s.logger.Info("budgets response", "budgets_count", len(budgets))
	s.respond(w, http.StatusOK, map[string]any{
		"status":  "success",
		"budgets": budgets,
	})
}

func (s *Server) handleBudgetAccounts(w http.ResponseWriter, r *http.Request) {
	budgetID := mux.Vars(r)["budget"]
	token := r.URL.Query().Get("token")
	if token == "" {
		s.respondError(w, r, http.StatusBadRequest, "token required", nil)
		return
	}

	snapshot, err := ynab.New(token).Account().GetAccounts(budgetID, nil)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to fetch accounts", err)
		return
	}
	var accounts any = []any{}
	if snapshot != nil && snapshot.Accounts != nil {
		accounts = snapshot.Accounts
	}
	s.respond(w, http.StatusOK, map[string]any{
		"status":   "success",
		"accounts": accounts,
	})
}

// --- helpers ---

func pathID(r *http.Request, name string) int64 {
	// the route pattern only admits digits
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func (s *Server) formUserID(raw string) (int64, error) {
	if raw == "" {
		return s.userID, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// parseFilter reads a TransactionFilter from the query string. Dates use
// YYYY-MM-DD and tags is a comma separated id list.
func (s *Server) parseFilter(r *http.Request) (repository.TransactionFilter, error) {
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		Category:  q.Get("category"),
		Direction: models.Direction(q.Get("direction")),
		DateField: repository.DateField(q.Get("date_field")),
	}

	var err error
	if filter.UserID, err = s.formUserID(q.Get("user_id")); err != nil {
		return filter, fmt.Errorf("invalid user_id")
	}
	for name, dst := range map[string]*int{"month": &filter.Month, "year": &filter.Year} {
		if v := q.Get(name); v != "" {
			if *dst, err = strconv.Atoi(v); err != nil {
				return filter, fmt.Errorf("invalid %s", name)
			}
		}
	}
	for name, dst := range map[string]**time.Time{"start": &filter.Start, "end": &filter.End} {
		if v := q.Get(name); v != "" {
			d, err := time.Parse(dateLayout, v)
			if err != nil {
				return filter, fmt.Errorf("invalid %s, expected YYYY-MM-DD", name)
			}
			*dst = &d
		}
	}
	if v := q.Get("tags"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return filter, fmt.Errorf("invalid tags")
			}
			filter.TagIDs = append(filter.TagIDs, id)
		}
	}
	if v := q.Get("untagged"); v != "" {
		if filter.Untagged, err = strconv.ParseBool(v); err != nil {
			return filter, fmt.Errorf("invalid untagged")
		}
	}

	switch filter.Direction {
	case "", models.Inflow, models.Outflow:
	default:
		return filter, fmt.Errorf("invalid direction %q", filter.Direction)
	}
	switch filter.DateField {
	case "", repository.ByDate, repository.ByInvoiceDate:
	default:
		return filter, fmt.Errorf("invalid date_field %q", filter.DateField)
	}
	return filter, nil
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	if err := s.writeJSON(w, status, v); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// respondServiceError maps use case errors to status codes. Validation
// messages are returned to the client as is.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var nf *models.NotFoundError
	switch {
	case errors.As(err, &nf):
		s.respondError(w, r, http.StatusNotFound, nf.Error(), nil)
	case models.IsValidation(err):
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
	default:
		s.respondError(w, r, http.StatusInternalServerError, "internal server error", err)
	}
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
