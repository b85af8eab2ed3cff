package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/recollect/internal/config"
	"github.com/lazypower/recollect/internal/errutil"
)

func TestSaveSessionTruncates(t *testing.T) {
	db, _ := testDB(t)

	files := make([]string, 30)
	for i := range files {
		files[i] = "pkg/file" + strings.Repeat("x", i) + ".go"
	}
	long := strings.Repeat("é", config.MaxSummaryChars+500)

	res, err := db.SaveSession(SaveSessionParams{
		Summary:      long,
		Project:      strings.Repeat("p", config.MaxProjectChars+10),
		FilesChanged: append([]string{"", "  "}, files...),
	})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	s := res.Session
	if got := len([]rune(s.Summary)); got != config.MaxSummaryChars {
		t.Errorf("summary runes = %d, want %d", got, config.MaxSummaryChars)
	}
	if got := len(s.Project); got != config.MaxProjectChars {
		t.Errorf("project len = %d, want %d", got, config.MaxProjectChars)
	}
	if len(s.FilesChanged) != config.MaxFilesChanged {
		t.Fatalf("files = %d, want %d", len(s.FilesChanged), config.MaxFilesChanged)
	}
	if s.FilesChanged[0] != files[0] {
		t.Errorf("files[0] = %q, want %q (order kept, empties dropped)", s.FilesChanged[0], files[0])
	}
	if s.SizeBytes != SessionSize(s.Summary, s.Project, s.FilesChanged) {
		t.Errorf("SizeBytes = %d, want %d", s.SizeBytes, SessionSize(s.Summary, s.Project, s.FilesChanged))
	}

	got, err := db.GetSessions(10)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != 1 || got[0].Summary != s.Summary || len(got[0].FilesChanged) != config.MaxFilesChanged {
		t.Errorf("stored session does not match saved one")
	}
}

func TestSaveSessionLongPath(t *testing.T) {
	db, _ := testDB(t)

	path := strings.Repeat("日", config.MaxFilePathBytes)
	res, err := db.SaveSession(SaveSessionParams{Summary: "s", FilesChanged: []string{path}})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	f := res.Session.FilesChanged[0]
	if len(f) > config.MaxFilePathBytes {
		t.Errorf("path len = %d, want <= %d", len(f), config.MaxFilePathBytes)
	}
	if !strings.HasPrefix(path, f) || len([]rune(f))*3 != len(f) {
		t.Errorf("path cut inside a rune")
	}
}

func TestSaveSessionRequiresSummary(t *testing.T) {
	db, _ := testDB(t)

	_, err := db.SaveSession(SaveSessionParams{Summary: "   ", Project: "p"})
	if !errors.Is(err, errutil.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	n, _, _ := db.SessionTotals()
	if n != 0 {
		t.Errorf("rejected save wrote %d sessions", n)
	}
}

func TestSaveSessionLargerThanCap(t *testing.T) {
	db, _ := testDB(t)
	db.SessionCap = 100

	_, err := db.SaveSession(SaveSessionParams{Summary: strings.Repeat("a", 200)})
	if !errors.Is(err, errutil.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestSessionEvictionOldestFirst(t *testing.T) {
	db, clock := testDB(t)
	// Every session below is 64 + 36 = 100 bytes.
	db.SessionCap = 350

	var ids []string
	for i := 0; i < 10; i++ {
		res, err := db.SaveSession(SaveSessionParams{Summary: strings.Repeat("s", 36)})
		if err != nil {
			t.Fatalf("SaveSession %d: %v", i, err)
		}
		if res.Session.SizeBytes != 100 {
			t.Fatalf("SizeBytes = %d, want 100", res.Session.SizeBytes)
		}
		ids = append(ids, res.Session.ID)
		clock.Advance(time.Minute)

		count, total, err := db.SessionTotals()
		if err != nil {
			t.Fatalf("SessionTotals: %v", err)
		}
		if total > db.SessionCap {
			t.Fatalf("after save %d total = %d > cap %d", i, total, db.SessionCap)
		}
		if want := min(i+1, 3); count != want {
			t.Errorf("after save %d count = %d, want %d", i, count, want)
		}
		if i >= 3 && res.Evicted != 1 {
			t.Errorf("save %d evicted %d, want 1", i, res.Evicted)
		}
	}

	got, err := db.GetSessions(50)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	want := []string{ids[9], ids[8], ids[7]}
	if len(got) != len(want) {
		t.Fatalf("kept %d sessions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}
}

func TestSessionEvictionSameTimestamp(t *testing.T) {
	db, _ := testDB(t)
	db.SessionCap = 250

	var ids []string
	for i := 0; i < 4; i++ {
		res, err := db.SaveSession(SaveSessionParams{Summary: strings.Repeat("s", 36)})
		if err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
		ids = append(ids, res.Session.ID)
	}

	got, err := db.GetSessions(10)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[3] || got[1].ID != ids[2] {
		t.Errorf("kept %v, want the last two saved", got)
	}
}

func TestGetSessionsLimit(t *testing.T) {
	db, clock := testDB(t)

	for i := 0; i < 5; i++ {
		if _, err := db.SaveSession(SaveSessionParams{Summary: "s", Project: "p"}); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Second)
	}

	got, err := db.GetSessions(2)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Errorf("sessions not most-recent first")
	}

	if _, err := db.GetSessions(0); !errors.Is(err, errutil.ErrValidation) {
		t.Errorf("GetSessions(0) err = %v, want ErrValidation", err)
	}
}
