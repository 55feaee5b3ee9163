package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if got := (CompoundSummary{}).TableName(); got != "compounds_summary" {
		t.Fatalf("CompoundSummary.TableName() = %q; want %q", got, "compounds_summary")
	}
}

func TestMigration_ColumnsAndPrimaryKey(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&CompoundSummary{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&CompoundSummary{}) {
		t.Fatalf("expected compounds_summary table")
	}
	for _, col := range []string{"compound", "name", "formula", "inchi", "inchi_key", "smiles", "cross_links_count", "updated"} {
		if !m.HasColumn(&CompoundSummary{}, col) {
			t.Fatalf("expected column %q", col)
		}
	}

	now := time.Now().UTC()
	if err := db.Create(&CompoundSummary{Compound: "ATP", Name: "a", Updated: now}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Create(&CompoundSummary{Compound: "ATP", Name: "b", Updated: now}).Error; err == nil {
		t.Fatalf("expected primary key violation on duplicate compound")
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"atp":      "ATP",
		"  atp  ":  "ATP",
		"\tXp9\n":  "XP9",
		"18w":      "18W",
		"":         "",
		"   ":      "",
		"ATP":      "ATP",
		" a t p ":  "A T P",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Errorf("NormalizeCode(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, code := range []string{"ADP", "ATP", "STI", "ZID", "DPM", "XP9", "18W", "29P", " atp ", "29p"} {
		if !IsSupported(code) {
			t.Errorf("IsSupported(%q) = false; want true", code)
		}
	}
	for _, code := range []string{"", "HEM", "AT", "ATPX", "A TP", "XYZ"} {
		if IsSupported(code) {
			t.Errorf("IsSupported(%q) = true; want false", code)
		}
	}
}

func TestSupportedCompounds_OrderAndCopy(t *testing.T) {
	got := SupportedCompounds()
	want := []string{"ADP", "ATP", "STI", "ZID", "DPM", "XP9", "18W", "29P"}
	if len(got) != len(want) {
		t.Fatalf("len = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SupportedCompounds()[%d] = %q; want %q", i, got[i], want[i])
		}
	}

	// mutating the copy must not leak into the allow-list
	got[0] = "HEM"
	if IsSupported("HEM") || !IsSupported("ADP") {
		t.Fatalf("SupportedCompounds returned the backing slice")
	}
}

func TestFields_OrderAndText(t *testing.T) {
	c := &CompoundSummary{
		Compound:        "ATP",
		Name:            "ADENOSINE-5'-TRIPHOSPHATE",
		Formula:         "C10 H16 N5 O13 P3",
		InChI:           "InChI=1S/...",
		InChIKey:        "ZKHQWZAMYRWXGA-KQYNXXCUSA-N",
		SMILES:          "c1nc(c2c(n1)n(cn2)...",
		CrossLinksCount: 22,
	}
	fields := c.Fields()
	names := []string{"compound", "name", "formula", "inchi", "inchi_key", "smiles", "cross_links_count"}
	if len(fields) != len(names) {
		t.Fatalf("len(Fields) = %d; want %d", len(fields), len(names))
	}
	for i, n := range names {
		if fields[i].Name != n {
			t.Fatalf("Fields()[%d].Name = %q; want %q", i, fields[i].Name, n)
		}
	}
	if fields[6].Value != "22" {
		t.Fatalf("cross_links_count rendered as %q; want %q", fields[6].Value, "22")
	}
}

func TestStoredFields_AppendsUpdated(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 123456000, time.FixedZone("X", 2*3600))
	c := &CompoundSummary{Compound: "ADP", Updated: ts}

	fields := c.StoredFields()
	if len(fields) != 8 {
		t.Fatalf("len(StoredFields) = %d; want 8", len(fields))
	}
	last := fields[7]
	if last.Name != "updated" || last.Value != "2024-03-05T05:08:09.123456" {
		t.Fatalf("updated field = %+v", last)
	}
	if (Stamp{Compound: "ADP", Updated: ts}).UpdatedISO() != last.Value {
		t.Fatalf("Stamp.UpdatedISO disagrees with StoredFields")
	}
}
