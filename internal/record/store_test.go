package record

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/gradebook/gradebook/internal/slot"
	"github.com/gradebook/gradebook/pkg/types"
)

var baseTime = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newStore(t *testing.T) (*Store, *slot.Memory) {
	t.Helper()
	m := slot.NewMemory("studentScores")
	st := New(m)
	st.now = fixedClock(baseTime)
	return st, m
}

func result(name string, scores ...float64) types.CalculationResult {
	var total float64
	for _, v := range scores {
		total += v
	}
	res := types.CalculationResult{
		Scores:  scores,
		Total:   total,
		Average: total / 5,
		Pass:    true,
		Grade:   types.GradeB,
	}
	if name != "" {
		res.Student = &name
	}
	return res
}

// failingSlot rejects every Put.
type failingSlot struct{ *slot.Memory }

func (failingSlot) Put(context.Context, []byte) error { return errors.New("disk full") }

func TestLoadAll_EmptySlot(t *testing.T) {
	st, _ := newStore(t)
	got := st.LoadAll(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("LoadAll on empty slot: got %v, want empty non-nil slice", got)
	}
}

func TestLoadAll_CorruptBlob(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"malformed json", `[{"id":`},
		{"object instead of array", `{"id":"a"}`},
		{"wrong score count", `[{"id":"a","scores":[1,2],"average":1.5}]`},
		{"null score", `[{"id":"a","scores":[null,80,90,60,75],"average":61}]`},
		{"string", `"hello"`},
		{"null", `null`},
		{"empty", ``},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, m := newStore(t)
			_ = m.Put(context.Background(), []byte(tc.blob))

			got := st.LoadAll(context.Background())
			if len(got) != 0 {
				t.Errorf("LoadAll: got %d records, want 0", len(got))
			}
		})
	}
}

func TestSave_AppendsAndPersists(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)

	first, err := st.Save(ctx, result("Ada", 70, 80, 90, 60, 75))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	before := len(st.LoadAll(ctx))

	res := result("", 100, 100, 100, 100, 39)
	rec, err := st.Save(ctx, res)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	list := st.LoadAll(ctx)
	if len(list) != before+1 {
		t.Fatalf("len after save: got %d, want %d", len(list), before+1)
	}
	last := list[len(list)-1]
	if !reflect.DeepEqual(last.CalculationResult, res) {
		t.Errorf("last record: got %+v, want %+v", last.CalculationResult, res)
	}
	if last.ID != rec.ID {
		t.Errorf("last id: got %q, want %q", last.ID, rec.ID)
	}
	if list[0].ID != first.ID {
		t.Errorf("first record moved: got %q, want %q", list[0].ID, first.ID)
	}
}

func TestSave_FindByIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)
	res := result("Grace", 55.5, 60, 72.25, 40, 99)

	rec, err := st.Save(ctx, res)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok := st.FindByID(ctx, rec.ID)
	if !ok {
		t.Fatalf("FindByID(%q): not found", rec.ID)
	}
	want := types.Record{ID: rec.ID, CalculationResult: res}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindByID: got %+v, want %+v", got, want)
	}
}

func TestSave_OverwritesCorruptBlob(t *testing.T) {
	ctx := context.Background()
	st, m := newStore(t)
	_ = m.Put(ctx, []byte(`{{{`))

	if _, err := st.Save(ctx, result("", 50, 50, 50, 50, 50)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n := len(st.LoadAll(ctx)); n != 1 {
		t.Errorf("LoadAll after healing save: got %d, want 1", n)
	}
}

func TestSave_PersistError(t *testing.T) {
	st := New(failingSlot{slot.NewMemory("k")})
	_, err := st.Save(context.Background(), result("", 50, 50, 50, 50, 50))
	if err == nil {
		t.Fatal("expected error from failing slot, got nil")
	}
}

func TestSave_IDFormat(t *testing.T) {
	st, _ := newStore(t)
	st.now = fixedClock(time.Date(2026, 3, 4, 10, 11, 12, 345_678_900, time.FixedZone("X", 3600)))

	rec, err := st.Save(context.Background(), result("", 50, 50, 50, 50, 50))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID != "2026-03-04T09:11:12.345Z" {
		t.Errorf("ID: got %q, want 2026-03-04T09:11:12.345Z", rec.ID)
	}
	if _, err := time.Parse(time.RFC3339Nano, rec.ID); err != nil {
		t.Errorf("ID not RFC3339: %v", err)
	}
}

func TestSave_SameMillisecondGetsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 5; i++ {
		rec, err := st.Save(ctx, result("", 50, 50, 50, 50, 50))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate id %q", rec.ID)
		}
		if rec.ID <= prev {
			t.Errorf("id %q not after %q", rec.ID, prev)
		}
		seen[rec.ID] = true
		prev = rec.ID
	}
	if prev != "2026-01-01T09:00:00.004Z" {
		t.Errorf("fifth id: got %q, want 2026-01-01T09:00:00.004Z", prev)
	}
}

func TestSave_SkipsIDsAlreadyStored(t *testing.T) {
	ctx := context.Background()
	m := slot.NewMemory("k")
	_ = m.Put(ctx, []byte(`[{"id":"2026-01-01T09:00:00.000Z","scores":[1,2,3,4,5],"average":3}]`))

	// A fresh Store (e.g. after restart) with the clock at the stored id.
	st := New(m)
	st.now = fixedClock(baseTime)

	rec, err := st.Save(ctx, result("", 50, 50, 50, 50, 50))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID != "2026-01-01T09:00:00.001Z" {
		t.Errorf("ID: got %q, want 2026-01-01T09:00:00.001Z", rec.ID)
	}
}

func TestGenerateID_Monotonic(t *testing.T) {
	st, _ := newStore(t)
	a := st.GenerateID()
	b := st.GenerateID()
	if a != "2026-01-01T09:00:00.000Z" || b != "2026-01-01T09:00:00.001Z" {
		t.Errorf("GenerateID: got %q then %q", a, b)
	}

	st.now = fixedClock(baseTime.Add(time.Second))
	if c := st.GenerateID(); c != "2026-01-01T09:00:01.000Z" {
		t.Errorf("GenerateID after clock advance: got %q", c)
	}
}

func TestFindByID_Missing(t *testing.T) {
	st, _ := newStore(t)
	if _, ok := st.FindByID(context.Background(), "nope"); ok {
		t.Error("FindByID on empty store: got true")
	}
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)
	a, _ := st.Save(ctx, result("a", 50, 50, 50, 50, 50))
	b, _ := st.Save(ctx, result("b", 60, 60, 60, 60, 60))

	list, err := st.DeleteByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("DeleteByID result: got %+v, want only %q", list, b.ID)
	}
	if _, ok := st.FindByID(ctx, a.ID); ok {
		t.Error("FindByID after delete: still found")
	}
	if n := st.Count(ctx); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestDeleteByID_UnknownIsNoOp(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)
	_, _ = st.Save(ctx, result("a", 50, 50, 50, 50, 50))
	_, _ = st.Save(ctx, result("b", 60, 60, 60, 60, 60))
	before := st.LoadAll(ctx)

	after, err := st.DeleteByID(ctx, "2000-01-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if !reflect.DeepEqual(after, before) {
		t.Errorf("DeleteByID(unknown) changed list:\n got %+v\nwant %+v", after, before)
	}
	if !reflect.DeepEqual(st.LoadAll(ctx), before) {
		t.Error("persisted list changed after deleting unknown id")
	}
}

func TestDeleteByID_RemovesEveryMatch(t *testing.T) {
	ctx := context.Background()
	m := slot.NewMemory("k")
	_ = m.Put(ctx, []byte(`[
		{"id":"dup","scores":[1,2,3,4,5],"average":3},
		{"id":"keep","scores":[1,2,3,4,5],"average":3},
		{"id":"dup","scores":[5,4,3,2,1],"average":3}
	]`))
	st := New(m)

	list, err := st.DeleteByID(ctx, "dup")
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if len(list) != 1 || list[0].ID != "keep" {
		t.Errorf("DeleteByID: got %+v, want only keep", list)
	}
}

func TestLoadAll_LegacyBrowserBlob(t *testing.T) {
	ctx := context.Background()
	m := slot.NewMemory("studentScores")
	_ = m.Put(ctx, []byte(`[{"id":"2025-05-01T08:30:00.000Z","scores":[70,80,90,60,75],"total":375,"avg":75,"pass":true,"grade":"B","student":"Ada"}]`))

	list := New(m).LoadAll(ctx)
	if len(list) != 1 {
		t.Fatalf("LoadAll: got %d records, want 1", len(list))
	}
	if list[0].Average != 75 || list[0].StudentName() != "Ada" {
		t.Errorf("legacy record: got %+v", list[0])
	}
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	st := New(slot.NewMemory("k"))
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.Save(ctx, result("", 50, 50, 50, 50, 50)); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	list := st.LoadAll(ctx)
	if len(list) != 50 {
		t.Fatalf("LoadAll: got %d records, want 50", len(list))
	}
	ids := make(map[string]bool, len(list))
	for _, r := range list {
		if ids[r.ID] {
			t.Fatalf("duplicate id %q", r.ID)
		}
		ids[r.ID] = true
	}
}
