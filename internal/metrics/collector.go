package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/gradebook/gradebook/pkg/types"
)

// Collector accumulates counters. All methods are safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	valid   uint64
	invalid uint64
	pass    uint64
	fail    uint64
	saved   uint64
	deleted uint64
	grades  map[types.Grade]uint64
	records func() int
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{grades: make(map[types.Grade]uint64, len(types.Grades))}
}

// TrackRecords sets the function that reports the current record count for
// the gradebook_records gauge.
func (c *Collector) TrackRecords(fn func() int) {
	c.mu.Lock()
	c.records = fn
	c.mu.Unlock()
}

// ObserveCalculation counts one calculation. A non-nil err counts as invalid
// input and res is ignored.
func (c *Collector) ObserveCalculation(res types.CalculationResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.invalid++
		return
	}
	c.valid++
	c.grades[res.Grade]++
	if res.Pass {
		c.pass++
	} else {
		c.fail++
	}
}

// ObserveSave counts one persisted record.
func (c *Collector) ObserveSave() {
	c.mu.Lock()
	c.saved++
	c.mu.Unlock()
}

// ObserveDelete counts n removed records.
func (c *Collector) ObserveDelete(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.deleted += uint64(n)
	c.mu.Unlock()
}

// Families returns a snapshot of all metric families, sorted by name.
func (c *Collector) Families() []*dto.MetricFamily {
	c.mu.Lock()
	gradeMetrics := make([]*dto.Metric, 0, len(types.Grades))
	for _, g := range types.Grades {
		gradeMetrics = append(gradeMetrics, counter(c.grades[g], "grade", string(g)))
	}
	calc := []*dto.Metric{
		counter(c.invalid, "outcome", "invalid"),
		counter(c.valid, "outcome", "valid"),
	}
	results := []*dto.Metric{
		counter(c.fail, "status", "fail"),
		counter(c.pass, "status", "pass"),
	}
	saved, deleted := c.saved, c.deleted
	recordsFn := c.records
	c.mu.Unlock()

	// Called outside the lock: it reads the slot.
	var records int
	if recordsFn != nil {
		records = recordsFn()
	}

	return []*dto.MetricFamily{
		family("gradebook_calculations_total", "Calculations by validation outcome.", dto.MetricType_COUNTER, calc),
		family("gradebook_grades_total", "Valid calculations by letter grade.", dto.MetricType_COUNTER, gradeMetrics),
		{
			Name: proto.String("gradebook_records"),
			Help: proto.String("Records currently stored."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: proto.Float64(float64(records))},
			}},
		},
		family("gradebook_records_deleted_total", "Records removed by delete.", dto.MetricType_COUNTER, []*dto.Metric{counter(deleted)}),
		family("gradebook_records_saved_total", "Records persisted by save.", dto.MetricType_COUNTER, []*dto.Metric{counter(saved)}),
		family("gradebook_results_total", "Valid calculations by pass/fail status.", dto.MetricType_COUNTER, results),
	}
}

// Encode writes every family to w in the given exposition format.
func (c *Collector) Encode(w io.Writer, format expfmt.Format) error {
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range c.Families() {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// ServeHTTP renders the text exposition format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	if err := c.Encode(w, format); err != nil {
		slog.Error("metrics: write response", "err", err)
	}
}

func family(name, help string, typ dto.MetricType, metrics []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   typ.Enum(),
		Metric: metrics,
	}
}

// counter builds a counter sample; labels are name/value pairs.
func counter(v uint64, labels ...string) *dto.Metric {
	m := &dto.Metric{Counter: &dto.Counter{Value: proto.Float64(float64(v))}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
