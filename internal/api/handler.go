package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gradebook/gradebook/internal/command"
	"github.com/gradebook/gradebook/internal/scoring"
	"github.com/gradebook/gradebook/pkg/types"
)

// maxBodyBytes caps request bodies; a score form is a few hundred bytes.
const maxBodyBytes = 64 << 10

// Route maps one HTTP pattern to a command. The table is configuration: the
// handler logic is the same for every entry.
type Route struct {
	// Pattern is a net/http ServeMux pattern including the method.
	Pattern string
	Command command.Name
	// Status is the success status code.
	Status int
	bind   binder
	render renderer
	// invalid renders a command that failed validation but still produced
	// output. Nil means the plain error body.
	invalid invalidRenderer
}

type binder func(r *http.Request) (command.Request, error)

type renderer func(resp command.Response) interface{}

type invalidRenderer func(resp command.Response, verr *scoring.ValidationError) (interface{}, bool)

// Routes is the UI-action-to-command table served by New.
var Routes = []Route{
	{Pattern: "POST /api/v1/calculate", Command: command.Calculate, Status: http.StatusOK, bind: bindScores, render: renderResult},
	{Pattern: "GET /api/v1/records", Command: command.List, Status: http.StatusOK, bind: bindNone, render: renderRecords},
	{Pattern: "POST /api/v1/records", Command: command.Save, Status: http.StatusCreated, bind: bindScores, render: renderSave},
	{Pattern: "GET /api/v1/records/{id}", Command: command.View, Status: http.StatusOK, bind: bindID, render: renderRecord},
	{Pattern: "POST /api/v1/records/{id}/load", Command: command.Load, Status: http.StatusOK, bind: bindID, render: renderLoad, invalid: renderLoadInvalid},
	{Pattern: "DELETE /api/v1/records/{id}", Command: command.Delete, Status: http.StatusOK, bind: bindDelete, render: renderRecords},
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	cmds *command.Dispatcher
	mux  *http.ServeMux
	next http.Handler
}

// New creates a Handler wired to the given dispatcher and registers Routes.
func New(d *command.Dispatcher) http.Handler {
	h := &Handler{cmds: d, mux: http.NewServeMux()}

	for _, rt := range Routes {
		h.mux.HandleFunc(rt.Pattern, h.serve(rt))
	}
	h.mux.HandleFunc("GET /api/v1/health", h.health)

	h.next = withRequestLog(h.mux)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.next.ServeHTTP(w, r)
}

// serve returns the generic bind → dispatch → render handler for rt.
func (h *Handler) serve(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := rt.bind(r)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := h.cmds.Dispatch(r.Context(), rt.Command, req)
		if err != nil {
			var verr *scoring.ValidationError
			if rt.invalid != nil && errors.As(err, &verr) {
				if body, ok := rt.invalid(resp, verr); ok {
					jsonResp(w, http.StatusUnprocessableEntity, body)
					return
				}
			}
			h.commandErr(w, r, rt.Command, err)
			return
		}
		jsonResp(w, rt.Status, rt.render(resp))
	}
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	view := h.cmds.Records(r.Context())
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", Records: len(view.Records)})
}

// commandErr maps the command error taxonomy to status codes.
func (h *Handler) commandErr(w http.ResponseWriter, r *http.Request, name command.Name, err error) {
	var (
		verr *scoring.ValidationError
		lerr *command.LookupError
	)
	switch {
	case errors.As(err, &verr):
		jsonErr(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.As(err, &lerr):
		jsonErr(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, command.ErrConfirmationDeclined):
		jsonErr(w, http.StatusPreconditionRequired, "Delete this record? Repeat the request with confirm=true.")
	default:
		slog.Error("api: command failed",
			"command", name, "path", r.URL.Path, "request_id", requestID(r), "err", err)
		jsonErr(w, http.StatusInternalServerError, "internal error")
	}
}

// --- binders ----------------------------------------------------------------

func bindNone(*http.Request) (command.Request, error) {
	return command.Request{}, nil
}

func bindID(r *http.Request) (command.Request, error) {
	return command.Request{ID: r.PathValue("id")}, nil
}

func bindDelete(r *http.Request) (command.Request, error) {
	req, _ := bindID(r)
	confirm := r.URL.Query().Get("confirm")
	if confirm == "" {
		confirm = r.Header.Get("X-Confirm")
	}
	if confirm != "" {
		ok, err := strconv.ParseBool(confirm)
		if err != nil {
			return command.Request{}, fmt.Errorf("confirm: %q is not a boolean", confirm)
		}
		req.Confirmed = ok
	}
	return req, nil
}

func bindScores(r *http.Request) (command.Request, error) {
	var body ScoresRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return command.Request{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	return command.Request{Scores: body.raw(), Student: body.Student}, nil
}

// --- renderers --------------------------------------------------------------

func renderResult(resp command.Response) interface{} {
	return ResultResponse{Result: *resp.Result}
}

func renderRecord(resp command.Response) interface{} {
	return resp.Record
}

func renderRecords(resp command.Response) interface{} {
	return BuildRecords(resp.Records)
}

func renderSave(resp command.Response) interface{} {
	return SaveResponse{
		Message: "Saved successfully.",
		View:    ViewRecords,
		Record:  *resp.Record,
		Records: BuildRecords(resp.Records),
	}
}

func renderLoad(resp command.Response) interface{} {
	return LoadResponse{
		View:   ViewCalculator,
		Form:   FormResponse{Scores: resp.Form.Scores, Student: resp.Form.Student},
		Result: resp.Result,
	}
}

// renderLoadInvalid still fills the form for a stored record whose scores no
// longer validate; the message goes where the result would be.
func renderLoadInvalid(resp command.Response, verr *scoring.ValidationError) (interface{}, bool) {
	if resp.Form == nil {
		return nil, false
	}
	return LoadResponse{
		View:  ViewCalculator,
		Form:  FormResponse{Scores: resp.Form.Scores, Student: resp.Form.Student},
		Error: verr.Error(),
	}, true
}

// --- helpers ----------------------------------------------------------------

// BuildRecords maps a records view to its JSON representation. The ws hub
// sends the same shape.
func BuildRecords(v *command.RecordsView) RecordsResponse {
	if v == nil {
		return RecordsResponse{Records: []types.Record{}}
	}
	return RecordsResponse{
		Count:   len(v.Records),
		Latest:  v.Latest,
		Records: v.Records,
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
