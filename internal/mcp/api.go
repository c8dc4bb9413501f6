package mcp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bull/wattsaver/internal/markdown"
)

// maxRequestBytes bounds API request bodies.
const maxRequestBytes = 64 << 10

// errorResponse is the JSON body of a rejected API request.
type errorResponse struct {
	Error string `json:"error"`
}

// askRequest is the body of POST /api/ask and POST /api/products.
type askRequest struct {
	Question string `json:"question"`
}

// API serves the advisor as plain JSON over HTTP.
type API struct {
	advisor  QuestionAnswerer
	products QuestionAnswerer
	renderer *markdown.Renderer
	logger   *slog.Logger
}

// NewAPI creates the JSON API handlers.
func NewAPI(advisor, products QuestionAnswerer, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		advisor:  advisor,
		products: products,
		renderer: markdown.NewRenderer(),
		logger:   logger,
	}
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/ask", a.handleQuestion(a.advisor))
	mux.HandleFunc("/api/products", a.handleQuestion(a.products))
	mux.HandleFunc("/api/vouchers", a.handleVouchers)
}

func (a *API) handleQuestion(answerer QuestionAnswerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if !decodePost(w, r, &req) {
			return
		}

		answer := answerer.AnswerQuestion(r.Context(), req.Question)
		out := AnswerOutput{Answer: answer}
		if html, err := a.renderer.ToHTML(answer); err != nil {
			a.logger.Warn("Failed to render answer", "error", err)
		} else {
			out.AnswerHTML = html
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (a *API) handleVouchers(w http.ResponseWriter, r *http.Request) {
	var req VoucherInput
	if !decodePost(w, r, &req) {
		return
	}

	out, err := evaluateVoucher(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decodePost accepts only POST requests with a JSON body. It writes the
// error response itself and reports whether the handler should continue.
func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
