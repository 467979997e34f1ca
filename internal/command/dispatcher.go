package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gradebook/gradebook/internal/metrics"
	"github.com/gradebook/gradebook/internal/record"
	"github.com/gradebook/gradebook/internal/scoring"
	"github.com/gradebook/gradebook/pkg/types"
)

// Name identifies a command.
type Name string

// Command names.
const (
	Calculate Name = "calculate"
	Save      Name = "save"
	List      Name = "list"
	Load      Name = "load"
	View      Name = "view"
	Delete    Name = "delete"
)

// Request carries the inputs of any command; each command reads only the
// fields it needs.
type Request struct {
	// Scores are the raw form values; nil entries are fields left empty.
	Scores  []*float64
	Student string

	// ID selects the record for load, view and delete.
	ID string

	// Confirmed must be true for delete to proceed.
	Confirmed bool
}

// Form is the calculator input restored from a stored record.
type Form struct {
	Scores  []float64
	Student string
}

// RecordsView is the records list as shown to the user.
type RecordsView struct {
	// Records are ordered newest first.
	Records []types.Record
	// Latest is the most recently saved record, nil when there are none.
	Latest *types.Record
}

// Response is the outcome of a command. Only the fields relevant to the
// command are set.
type Response struct {
	Result  *types.CalculationResult
	Record  *types.Record
	Form    *Form
	Records *RecordsView
}

// Handler executes one command.
type Handler func(ctx context.Context, req Request) (Response, error)

// Dispatcher routes command names to handlers backed by one record store.
// It is safe for concurrent use.
type Dispatcher struct {
	store   *record.Store
	metrics *metrics.Collector
	table   map[Name]Handler

	mu        sync.RWMutex
	listeners []func()
}

// New creates a Dispatcher over st. m may be nil.
func New(st *record.Store, m *metrics.Collector) *Dispatcher {
	if m == nil {
		m = metrics.New()
	}
	d := &Dispatcher{store: st, metrics: m}
	d.table = map[Name]Handler{
		Calculate: d.calculate,
		Save:      d.save,
		List:      d.list,
		Load:      d.load,
		View:      d.view,
		Delete:    d.delete,
	}
	return d
}

// Names returns every registered command name.
func (d *Dispatcher) Names() []Name {
	out := make([]Name, 0, len(d.table))
	for n := range d.table {
		out = append(out, n)
	}
	return out
}

// OnChange registers fn to be called after a command changed the stored
// records.
func (d *Dispatcher) OnChange(fn func()) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Dispatch runs the named command.
func (d *Dispatcher) Dispatch(ctx context.Context, name Name, req Request) (Response, error) {
	h, ok := d.table[name]
	if !ok {
		return Response{}, fmt.Errorf("command %q: %w", name, ErrUnknownCommand)
	}
	return h(ctx, req)
}

// Records returns the current records view.
func (d *Dispatcher) Records(ctx context.Context) RecordsView {
	return newRecordsView(d.store.LoadAll(ctx))
}

// --- handlers ---------------------------------------------------------------

func (d *Dispatcher) calculate(_ context.Context, req Request) (Response, error) {
	res, err := scoring.Calculate(req.Scores, req.Student)
	d.metrics.ObserveCalculation(res, err)
	if err != nil {
		return Response{}, err
	}
	return Response{Result: &res}, nil
}

func (d *Dispatcher) save(ctx context.Context, req Request) (Response, error) {
	calc, err := d.calculate(ctx, req)
	if err != nil {
		return Response{}, err
	}
	rec, err := d.store.Save(ctx, *calc.Result)
	if err != nil {
		return Response{}, fmt.Errorf("command save: %w", err)
	}
	d.metrics.ObserveSave()
	slog.Info("command: record saved", "id", rec.ID, "grade", rec.Grade, "pass", rec.Pass)
	d.changed()

	view := d.Records(ctx)
	return Response{Result: calc.Result, Record: &rec, Records: &view}, nil
}

func (d *Dispatcher) list(ctx context.Context, _ Request) (Response, error) {
	view := d.Records(ctx)
	return Response{Records: &view}, nil
}

func (d *Dispatcher) load(ctx context.Context, req Request) (Response, error) {
	rec, err := d.find(ctx, req.ID)
	if err != nil {
		return Response{}, err
	}
	form := Form{Scores: rec.Scores, Student: rec.StudentName()}
	res, err := d.calculate(ctx, Request{Scores: scoring.Pointers(form.Scores), Student: form.Student})
	if err != nil {
		// A stored record that no longer validates (e.g. edited by hand)
		// still fills the form; the caller shows the validation message.
		return Response{Form: &form, Record: &rec}, err
	}
	return Response{Form: &form, Record: &rec, Result: res.Result}, nil
}

func (d *Dispatcher) view(ctx context.Context, req Request) (Response, error) {
	rec, err := d.find(ctx, req.ID)
	if err != nil {
		return Response{}, err
	}
	return Response{Record: &rec}, nil
}

func (d *Dispatcher) delete(ctx context.Context, req Request) (Response, error) {
	if !req.Confirmed {
		return Response{}, ErrConfirmationDeclined
	}
	if _, err := d.find(ctx, req.ID); err != nil {
		return Response{}, err
	}
	before := d.store.Count(ctx)
	list, err := d.store.DeleteByID(ctx, req.ID)
	if err != nil {
		return Response{}, fmt.Errorf("command delete: %w", err)
	}
	d.metrics.ObserveDelete(before - len(list))
	slog.Info("command: record deleted", "id", req.ID)
	d.changed()

	view := newRecordsView(list)
	return Response{Records: &view}, nil
}

// --- helpers ----------------------------------------------------------------

func (d *Dispatcher) find(ctx context.Context, id string) (types.Record, error) {
	rec, ok := d.store.FindByID(ctx, id)
	if !ok {
		return types.Record{}, &LookupError{ID: id}
	}
	return rec, nil
}

func (d *Dispatcher) changed() {
	d.mu.RLock()
	fns := append([]func(){}, d.listeners...)
	d.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// newRecordsView reverses list into newest-first order.
func newRecordsView(list []types.Record) RecordsView {
	out := make([]types.Record, len(list))
	for i, r := range list {
		out[len(list)-1-i] = r
	}
	view := RecordsView{Records: out}
	if len(out) > 0 {
		latest := out[0]
		view.Latest = &latest
	}
	return view
}
