package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

func strptr(s string) *string { return &s }

func f64ptr(f float64) *float64 { return &f }

func TestRecordsCreateGetRoundtrip(t *testing.T) {
	db := openTestDB(t)
	rs := NewRecordsStore(db)
	ctx := context.Background()

	rec := &ProcessRecord{
		BatchNumber:              "UH-2024-001",
		MaterialGrade:            "GUR 4120",
		Supplier:                 strptr("Celanese"),
		ResinType:                strptr("UHMWPE"),
		ResinMolecularWeightGMol: f64ptr(5.2e6),
		DrawRatio:                f64ptr(35),
	}
	if err := rs.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.RecordID == 0 {
		t.Fatalf("expected record id to be assigned")
	}

	got, err := rs.Get(ctx, rec.RecordID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("record not found after create")
	}
	if got.BatchNumber != "UH-2024-001" || got.MaterialGrade != "GUR 4120" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Supplier == nil || *got.Supplier != "Celanese" {
		t.Fatalf("supplier not persisted: %+v", got.Supplier)
	}
	if got.MeltingPointC != nil {
		t.Fatalf("unset numeric should stay null")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set")
	}
}

func TestRecordsDuplicateBatch(t *testing.T) {
	db := openTestDB(t)
	rs := NewRecordsStore(db)
	ctx := context.Background()

	a := &ProcessRecord{BatchNumber: "DUP-1", MaterialGrade: "GUR 4150"}
	if err := rs.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	b := &ProcessRecord{BatchNumber: "DUP-1", MaterialGrade: "GUR 4170"}
	if err := rs.Create(ctx, b); err != ErrDuplicateBatch {
		t.Fatalf("expected ErrDuplicateBatch, got %v", err)
	}

	c := &ProcessRecord{BatchNumber: "DUP-2", MaterialGrade: "GUR 4170"}
	if err := rs.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	c.BatchNumber = "DUP-1"
	if err := rs.Update(ctx, c); err != ErrDuplicateBatch {
		t.Fatalf("expected ErrDuplicateBatch on update, got %v", err)
	}
}

func TestRecordsListPaginationAndFilters(t *testing.T) {
	db := openTestDB(t)
	rs := NewRecordsStore(db)
	ctx := context.Background()

	grades := []string{"GUR 4120", "GUR 4150", "GUR 4170"}
	for i := 0; i < 25; i++ {
		rec := &ProcessRecord{
			BatchNumber:   "B-" + time.Now().Format("060102") + "-" + string(rune('A'+i)),
			MaterialGrade: grades[i%3],
			ResinType:     strptr("UHMWPE"),
		}
		if err := rs.Create(ctx, rec); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := rs.List(ctx, RecordFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 25 || page.Pages != 3 || len(page.Records) != 10 {
		t.Fatalf("unexpected page meta: total=%d pages=%d n=%d", page.Total, page.Pages, len(page.Records))
	}
	if page.HasPrev || !page.HasNext {
		t.Fatalf("page 1 should have next only")
	}

	last, err := rs.List(ctx, RecordFilter{}, 3, 10)
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(last.Records) != 5 || !last.HasPrev || last.HasNext {
		t.Fatalf("unexpected last page: n=%d prev=%v next=%v", len(last.Records), last.HasPrev, last.HasNext)
	}

	// Newest first.
	if len(page.Records) > 1 && page.Records[0].RecordID < page.Records[1].RecordID {
		t.Fatalf("expected newest-first ordering")
	}

	// Case-insensitive substring filter.
	filtered, err := rs.List(ctx, RecordFilter{MaterialGrade: "gur 4120"}, 1, 50)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if filtered.Total != 9 {
		t.Fatalf("expected 9 GUR 4120 records, got %d", filtered.Total)
	}
	for _, r := range filtered.Records {
		if r.MaterialGrade != "GUR 4120" {
			t.Fatalf("filter leaked record with grade %q", r.MaterialGrade)
		}
	}

	none, err := rs.List(ctx, RecordFilter{BatchNumber: "no-such-batch"}, 1, 10)
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if none.Total != 0 || none.Pages != 0 || none.HasNext || len(none.Records) != 0 {
		t.Fatalf("unexpected empty result: %+v", none)
	}
}

func TestRecordsUpdateAndDelete(t *testing.T) {
	db := openTestDB(t)
	rs := NewRecordsStore(db)
	ctx := context.Background()

	rec := &ProcessRecord{BatchNumber: "UPD-1", MaterialGrade: "GUR 4120", Remarks: strptr("first trial")}
	if err := rs.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec.MaterialGrade = "GUR 4150"
	rec.Remarks = nil
	rec.DrawRatio = f64ptr(40)
	if err := rs.Update(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := rs.Get(ctx, rec.RecordID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MaterialGrade != "GUR 4150" || got.Remarks != nil || got.DrawRatio == nil || *got.DrawRatio != 40 {
		t.Fatalf("update not persisted: %+v", got)
	}

	ok, err := rs.Delete(ctx, rec.RecordID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = rs.Delete(ctx, rec.RecordID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Fatalf("delete of missing record should report false")
	}
	if got, _ := rs.Get(ctx, rec.RecordID); got != nil {
		t.Fatalf("record still readable after delete")
	}
}

func TestSessionsLifecycle(t *testing.T) {
	db := openTestDB(t)
	ss := NewSessionsStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	sess := &SessionRecord{
		ID:        "sess-1",
		UserID:    1,
		Username:  "admin",
		RoleName:  "Admin",
		ExpiresAt: now.Add(time.Hour),
	}
	if err := ss.SaveSession(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := ss.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Username != "admin" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := ss.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ss.GetSession(ctx, "sess-1"); got != nil {
		t.Fatalf("revoked session still resolves")
	}

	expired := &SessionRecord{ID: "sess-2", UserID: 1, Username: "admin", RoleName: "Admin",
		ExpiresAt: now.Add(-time.Minute)}
	if err := ss.SaveSession(ctx, expired); err != nil {
		t.Fatalf("save expired: %v", err)
	}
	if got, _ := ss.GetSession(ctx, "sess-2"); got != nil {
		t.Fatalf("expired session still resolves")
	}

	n, err := ss.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n == 0 {
		t.Fatalf("purge removed nothing")
	}
}

func TestAttachmentsStore(t *testing.T) {
	db := openTestDB(t)
	as := NewAttachmentsStore(db)
	ctx := context.Background()

	a := &Attachment{
		ParentModule:   "resin_spinning",
		ParentRecordID: 7,
		OriginalName:   "dsc-curve.pdf",
		StoredName:     "0123456789abcdef.pdf",
		FileType:       strptr("application/pdf"),
	}
	if err := as.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == 0 {
		t.Fatalf("attachment id not assigned")
	}

	list, err := as.ListForRecord(ctx, "resin_spinning", 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].OriginalName != "dsc-curve.pdf" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].Uploader != nil {
		t.Fatalf("uploader should be null without a users row")
	}

	names, err := as.DeleteForRecord(ctx, "resin_spinning", 7)
	if err != nil {
		t.Fatalf("delete for record: %v", err)
	}
	if len(names) != 1 || names[0] != "0123456789abcdef.pdf" {
		t.Fatalf("unexpected stored names: %v", names)
	}
	if rest, _ := as.ListForRecord(ctx, "resin_spinning", 7); len(rest) != 0 {
		t.Fatalf("attachments remain after record cleanup")
	}
}
