package spatial_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/spatial"
)

func randomBox(r *rand.Rand, span float64) domain.BoundingBox {
	return domain.BoundingBox{
		X:      (r.Float64()*2 - 1) * span,
		Y:      (r.Float64()*2 - 1) * span,
		Width:  r.Float64() * span / 10,
		Height: r.Float64() * span / 10,
	}
}

// Query results must match a brute-force scan exactly, with no false
// positives or negatives, at every scale the tree covers.
func TestIndex_QueryMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	ix := spatial.NewIndex()
	boxes := make(map[string]domain.BoundingBox)

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("item-%d", i)
		box := randomBox(r, 50000)
		if err := ix.Insert(id, box); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
		boxes[id] = box
	}

	for q := 0; q < 200; q++ {
		rect := randomBox(r, 60000)
		got := map[string]bool{}
		for _, e := range ix.Query(rect) {
			got[e.ID] = true
		}
		for id, box := range boxes {
			want := box.Intersects(rect)
			if got[id] != want {
				t.Fatalf("query %d: id %s in result = %v, want %v", q, id, got[id], want)
			}
		}
	}
}

func TestIndex_InsertRemove(t *testing.T) {
	ix := spatial.NewIndex()
	box := domain.BoundingBox{X: 10, Y: 10, Width: 5, Height: 5}
	if err := ix.Insert("a", box); err != nil {
		t.Fatal(err)
	}
	if err := ix.Insert("a", box); err == nil {
		t.Fatal("duplicate insert succeeded")
	}
	if !ix.Has("a") || ix.Len() != 1 {
		t.Fatalf("has=%v len=%d", ix.Has("a"), ix.Len())
	}
	if got, ok := ix.BoxOf("a"); !ok || got != box {
		t.Fatalf("BoxOf = %+v, %v", got, ok)
	}
	if !ix.Remove("a") {
		t.Fatal("remove failed")
	}
	if ix.Remove("a") {
		t.Fatal("second remove succeeded")
	}
	if len(ix.Query(domain.BoundingBox{X: 0, Y: 0, Width: 100, Height: 100})) != 0 {
		t.Fatal("removed entry still queryable")
	}
}

func TestIndex_OutOfBounds(t *testing.T) {
	ix := spatial.NewIndex()
	far := domain.BoundingBox{X: spatial.WorldExtent, Y: 0, Width: 10, Height: 10}
	if err := ix.Insert("far", far); !errors.Is(err, spatial.ErrOutOfBounds) {
		t.Fatalf("insert err = %v", err)
	}
	if ix.Len() != 0 {
		t.Fatal("failed insert left an entry behind")
	}

	in := domain.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}
	if err := ix.Insert("a", in); err != nil {
		t.Fatal(err)
	}
	if err := ix.Update("a", far); !errors.Is(err, spatial.ErrOutOfBounds) {
		t.Fatalf("update err = %v", err)
	}
	if got, _ := ix.BoxOf("a"); got != in {
		t.Fatalf("failed update changed the box to %+v", got)
	}
}

func TestIndex_UpdateMovesEntry(t *testing.T) {
	ix := spatial.NewIndex()
	if err := ix.Insert("a", domain.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	moved := domain.BoundingBox{X: 5000, Y: 5000, Width: 10, Height: 10}
	if err := ix.Update("a", moved); err != nil {
		t.Fatal(err)
	}
	near := ix.Query(domain.BoundingBox{X: 4990, Y: 4990, Width: 40, Height: 40})
	if len(near) != 1 || near[0].ID != "a" {
		t.Fatalf("query at new box = %+v", near)
	}
	old := ix.Query(domain.BoundingBox{X: -5, Y: -5, Width: 20, Height: 20})
	if len(old) != 0 {
		t.Fatalf("query at old box = %+v", old)
	}
	if err := ix.Update("ghost", moved); err == nil {
		t.Fatal("update of unknown id succeeded")
	}
}

// Identical queries on unchanged data return entries in the same order, and
// that order follows insertion.
func TestIndex_StableQueryOrder(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	ix := spatial.NewIndex()
	for i := 0; i < 200; i++ {
		// Overlapping boxes around the origin so most queries hit many.
		box := domain.BoundingBox{
			X:      (r.Float64()*2 - 1) * 100,
			Y:      (r.Float64()*2 - 1) * 100,
			Width:  50 + r.Float64()*100,
			Height: 50 + r.Float64()*100,
		}
		if err := ix.Insert(fmt.Sprintf("item-%d", i), box); err != nil {
			t.Fatal(err)
		}
	}
	rect := domain.BoundingBox{X: -150, Y: -150, Width: 300, Height: 300}
	first := ix.Query(rect)
	if len(first) == 0 {
		t.Fatal("query hit nothing")
	}
	second := ix.Query(rect)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	prev := -1
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
		var n int
		fmt.Sscanf(first[i].ID, "item-%d", &n)
		if n <= prev {
			t.Fatalf("result not in insertion order at %d: %s", i, first[i].ID)
		}
		prev = n
	}
}

func TestIndex_Clear(t *testing.T) {
	ix := spatial.NewIndex()
	for i := 0; i < 20; i++ {
		if err := ix.Insert(fmt.Sprintf("item-%d", i), randomBox(rand.New(rand.NewSource(int64(i))), 1000)); err != nil {
			t.Fatal(err)
		}
	}
	ix.Clear()
	if ix.Len() != 0 {
		t.Fatalf("len after clear = %d", ix.Len())
	}
	if err := ix.Insert("fresh", domain.BoundingBox{Width: 1, Height: 1}); err != nil {
		t.Fatal(err)
	}
	if got := ix.Entries(); len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("entries after clear = %+v", got)
	}
}
