package history_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/repository"
	"github.com/m-mizutani/singhoo/pkg/usecase/history"
)

func generateCandidate(prompt, imageURL string) *model.GenerateCandidate {
	return &model.GenerateCandidate{
		Prompt:   prompt,
		ImageURL: imageURL,
		Settings: model.GenerateSettings{
			Model:       model.ImageModelImagen,
			AspectRatio: model.AspectRatio1x1,
			ImageSize:   model.ImageSize1K,
		},
	}
}

func newManager(t *testing.T) (*history.Manager, *repository.MemorySlot) {
	t.Helper()
	slot := repository.NewMemorySlot()
	return history.New(context.Background(), repository.New(slot)), slot
}

func reload(t *testing.T, slot repository.Slot) []model.Record {
	t.Helper()
	return repository.New(slot).Load(context.Background())
}

func TestAddOrder(t *testing.T) {
	ctx := context.Background()
	mgr, slot := newManager(t)

	var added []model.Record
	for i := 0; i < 5; i++ {
		rec, ok, err := mgr.Add(ctx, generateCandidate("p", fmt.Sprintf("data:image/png;base64,%d", i)))
		gt.NoError(t, err)
		gt.True(t, ok)
		added = append(added, rec)
	}

	list := mgr.List()
	gt.A(t, list).Length(5)

	ids := map[model.HistoryID]bool{}
	for i, r := range list {
		gt.Equal(t, r.Base().ID, added[len(added)-1-i].Base().ID)
		ids[r.Base().ID] = true
	}
	gt.Equal(t, len(ids), 5)

	persisted := reload(t, slot)
	gt.A(t, persisted).Length(5)
	gt.Equal(t, persisted[0].Base().ID, list[0].Base().ID)
}

// sameRecord compares every persisted field of two records
func sameRecord(t *testing.T, got, want model.Record) {
	t.Helper()
	gb, wb := got.Base(), want.Base()
	gt.Equal(t, gb.ID, wb.ID)
	gt.True(t, gb.Timestamp.Equal(wb.Timestamp))
	gt.Equal(t, gb.Prompt, wb.Prompt)
	gt.Equal(t, gb.ImageURL, wb.ImageURL)
	gt.Equal(t, got.Kind(), want.Kind())

	switch w := want.(type) {
	case *model.GenerateRecord:
		g, ok := got.(*model.GenerateRecord)
		gt.True(t, ok)
		gt.Equal(t, g.Settings, w.Settings)
	case *model.EditRecord:
		g, ok := got.(*model.EditRecord)
		gt.True(t, ok)
		gt.Equal(t, g.OriginalImageURL, w.OriginalImageURL)
	default:
		t.Fatalf("unexpected record type %T", want)
	}
}

func TestReloadMatchesMemory(t *testing.T) {
	ctx := context.Background()
	slot := repository.NewMemorySlot()

	// Sub-millisecond clock to make sure nothing finer than the persisted
	// precision leaks into memory
	base := time.UnixMilli(1700000000000)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick)*time.Millisecond + 123456*time.Nanosecond)
	}
	mgr := history.New(ctx, repository.New(slot), history.WithClock(clock))

	_, _, err := mgr.Add(ctx, generateCandidate("a cat", "data:image/png;base64,AAA"))
	gt.NoError(t, err)
	_, _, err = mgr.Add(ctx, &model.EditCandidate{
		Prompt:           "make it blue",
		ImageURL:         "data:image/png;base64,BBB",
		OriginalImageURL: "data:image/png;base64,AAA",
	})
	gt.NoError(t, err)
	_, _, err = mgr.Add(ctx, generateCandidate("a dog", "data:image/png;base64,CCC"))
	gt.NoError(t, err)

	list := mgr.List()
	gt.Equal(t, list[0].Base().Timestamp.Nanosecond()%int(time.Millisecond), 0)

	check := func() {
		t.Helper()
		persisted := reload(t, slot)
		gt.A(t, persisted).Length(len(mgr.List()))
		for i, r := range mgr.List() {
			sameRecord(t, persisted[i], r)
		}
	}
	check()

	gt.True(t, mgr.Remove(ctx, list[1].Base().ID))
	check()

	mgr.Clear(ctx)
	check()
}

func TestAddDuplicateFront(t *testing.T) {
	ctx := context.Background()
	mgr, slot := newManager(t)

	first, ok, err := mgr.Add(ctx, generateCandidate("a cat", "data:...AAA"))
	gt.NoError(t, err)
	gt.True(t, ok)

	front, ok, err := mgr.Add(ctx, generateCandidate("a cat", "data:...AAA"))
	gt.NoError(t, err)
	gt.False(t, ok)
	gt.Equal(t, front.Base().ID, first.Base().ID)

	gt.A(t, mgr.List()).Length(1)
	gt.A(t, reload(t, slot)).Length(1)
}

func TestAddDuplicateNotAdjacent(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t)

	_, _, err := mgr.Add(ctx, generateCandidate("a", "data:A"))
	gt.NoError(t, err)
	_, _, err = mgr.Add(ctx, generateCandidate("b", "data:B"))
	gt.NoError(t, err)

	// Only the front record is compared
	_, ok, err := mgr.Add(ctx, generateCandidate("a", "data:A"))
	gt.NoError(t, err)
	gt.True(t, ok)
	gt.A(t, mgr.List()).Length(3)
}

func TestAddEdit(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t)

	rec, ok, err := mgr.Add(ctx, &model.EditCandidate{
		Prompt:           "remove the background",
		ImageURL:         "data:image/png;base64,NEW",
		OriginalImageURL: "data:image/png;base64,OLD",
	})
	gt.NoError(t, err)
	gt.True(t, ok)
	gt.Equal(t, rec.Kind(), model.RecordKindEdit)

	_, _, err = mgr.Add(ctx, nil)
	gt.Error(t, err)
	gt.A(t, mgr.List()).Length(1)
}

func TestTimestampsNonDecreasing(t *testing.T) {
	ctx := context.Background()
	base := time.UnixMilli(1700000000000)
	clock := []time.Time{base, base.Add(-time.Hour), base.Add(time.Second)}
	idx := 0

	mgr := history.New(ctx, repository.New(repository.NewMemorySlot()),
		history.WithClock(func() time.Time {
			ts := clock[idx]
			idx++
			return ts
		}),
	)

	for i := 0; i < 3; i++ {
		_, _, err := mgr.Add(ctx, generateCandidate("p", fmt.Sprintf("data:%d", i)))
		gt.NoError(t, err)
	}

	list := mgr.List()
	gt.True(t, list[1].Base().Timestamp.Equal(base))
	gt.True(t, list[1].Base().Timestamp.Equal(list[2].Base().Timestamp))
	gt.True(t, list[0].Base().Timestamp.After(list[1].Base().Timestamp))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	mgr, slot := newManager(t)

	a, _, err := mgr.Add(ctx, generateCandidate("A", "data:A"))
	gt.NoError(t, err)
	b, _, err := mgr.Add(ctx, generateCandidate("B", "data:B"))
	gt.NoError(t, err)

	gt.False(t, mgr.Remove(ctx, "missing"))
	gt.A(t, mgr.List()).Length(2)

	gt.True(t, mgr.Remove(ctx, a.Base().ID))
	list := mgr.List()
	gt.A(t, list).Length(1)
	gt.Equal(t, list[0].Base().ID, b.Base().ID)

	persisted := reload(t, slot)
	gt.A(t, persisted).Length(1)
	gt.Equal(t, persisted[0].Base().ID, b.Base().ID)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	mgr, slot := newManager(t)

	mgr.Clear(ctx)
	gt.A(t, mgr.List()).Length(0)

	for i := 0; i < 3; i++ {
		_, _, err := mgr.Add(ctx, generateCandidate("p", fmt.Sprintf("data:%d", i)))
		gt.NoError(t, err)
	}
	mgr.Clear(ctx)
	gt.A(t, mgr.List()).Length(0)
	gt.A(t, reload(t, slot)).Length(0)
}

func TestLoadAtStartup(t *testing.T) {
	ctx := context.Background()
	slot := repository.NewMemorySlot()

	first := history.New(ctx, repository.New(slot))
	rec, _, err := first.Add(ctx, generateCandidate("kept", "data:K"))
	gt.NoError(t, err)

	second := history.New(ctx, repository.New(slot))
	list := second.List()
	gt.A(t, list).Length(1)
	gt.Equal(t, list[0].Base().ID, rec.Base().ID)
}

func TestFailingStoreKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	slot := repository.NewMemorySlot()
	slot.Fail(errors.New("disk full"))

	mgr := history.New(ctx, repository.New(slot))
	a, _, err := mgr.Add(ctx, generateCandidate("A", "data:A"))
	gt.NoError(t, err)
	_, _, err = mgr.Add(ctx, generateCandidate("B", "data:B"))
	gt.NoError(t, err)
	gt.A(t, mgr.List()).Length(2)

	gt.True(t, mgr.Remove(ctx, a.Base().ID))
	gt.A(t, mgr.List()).Length(1)

	mgr.Clear(ctx)
	gt.A(t, mgr.List()).Length(0)
}

func TestGetAndReuse(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newManager(t)

	gen, _, err := mgr.Add(ctx, generateCandidate("a cat", "data:G"))
	gt.NoError(t, err)
	edit, _, err := mgr.Add(ctx, &model.EditCandidate{Prompt: "hat", ImageURL: "data:E", OriginalImageURL: "data:O"})
	gt.NoError(t, err)

	got, err := mgr.Get(gen.Base().ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Base().Prompt, "a cat")

	_, err = mgr.Get("missing")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagNotFound))

	prompt, settings, err := mgr.Reuse(gen.Base().ID)
	gt.NoError(t, err)
	gt.Equal(t, prompt, "a cat")
	gt.Equal(t, settings.AspectRatio, model.AspectRatio1x1)

	_, _, err = mgr.Reuse(edit.Base().ID)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagValidation))
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	mgr := history.New(ctx, repository.New(repository.NewMemorySlot()),
		history.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	)

	rec, _, err := mgr.Add(ctx, generateCandidate("p", model.EncodeDataURL(model.MIMETypePNG, []byte("png-bytes"))))
	gt.NoError(t, err)

	buf := &bytes.Buffer{}
	name, err := mgr.Download(rec.Base().ID, buf)
	gt.NoError(t, err)
	gt.Equal(t, name, "singhoo-studio-1700000000000.png")
	gt.Equal(t, buf.String(), "png-bytes")

	broken, _, err := mgr.Add(ctx, generateCandidate("p", "not-a-data-url"))
	gt.NoError(t, err)
	_, err = mgr.Download(broken.Base().ID, buf)
	gt.Error(t, err)
}
