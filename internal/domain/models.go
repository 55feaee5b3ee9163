// Package domain defines the persistence model for cached compound summaries
// and the rules that identify a compound: the allow-list of supported codes
// and the normalisation applied to user input before any lookup or write.
package domain

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TimestampLayout is the textual form of CompoundSummary.Updated used by
// listings and by the stored string projection (ISO-8601, microseconds).
const TimestampLayout = "2006-01-02T15:04:05.000000"

// CompoundSummary is the cached summary of a single chemical component as
// published by the PDBe compound summary endpoint.
//
// Fields:
//   - Compound: normalised compound code, primary key.
//   - Name, Formula, InChI, InChIKey, SMILES: copied verbatim from the
//     first detail object of the upstream payload.
//   - CrossLinksCount: number of cross references to other resources.
//   - Updated: last write time, assigned by the store on every save.
//
// A summary is replaced wholesale on every save; callers never patch
// individual columns.
type CompoundSummary struct {
	Compound        string    `json:"compound"          gorm:"column:compound;type:varchar(8);primaryKey"`
	Name            string    `json:"name"              gorm:"column:name"`
	Formula         string    `json:"formula"           gorm:"column:formula"`
	InChI           string    `json:"inchi"             gorm:"column:inchi"`
	InChIKey        string    `json:"inchi_key"         gorm:"column:inchi_key"`
	SMILES          string    `json:"smiles"            gorm:"column:smiles"`
	CrossLinksCount int       `json:"cross_links_count" gorm:"column:cross_links_count;not null;default:0"`
	Updated         time.Time `json:"updated"           gorm:"column:updated"`
}

// TableName returns the database table name for CompoundSummary.
func (CompoundSummary) TableName() string { return "compounds_summary" }

// Field is one named value of the string projection of a summary.
type Field struct {
	Name  string
	Value string
}

// Fields returns the visible projection of the summary in display order.
// Every value is rendered as text.
func (c *CompoundSummary) Fields() []Field {
	return []Field{
		{Name: "compound", Value: c.Compound},
		{Name: "name", Value: c.Name},
		{Name: "formula", Value: c.Formula},
		{Name: "inchi", Value: c.InChI},
		{Name: "inchi_key", Value: c.InChIKey},
		{Name: "smiles", Value: c.SMILES},
		{Name: "cross_links_count", Value: strconv.Itoa(c.CrossLinksCount)},
	}
}

// StoredFields returns the projection of a persisted row: the visible
// fields followed by the update timestamp.
func (c *CompoundSummary) StoredFields() []Field {
	return append(c.Fields(), Field{Name: "updated", Value: FormatTimestamp(c.Updated)})
}

// Stamp is the identity and last update time of a cached summary.
type Stamp struct {
	Compound string    `json:"compound"`
	Updated  time.Time `json:"updated"`
}

// UpdatedISO returns Updated in TimestampLayout.
func (s Stamp) UpdatedISO() string { return FormatTimestamp(s.Updated) }

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// supportedCompounds is the closed allow-list, in the order it is shown
// to users.
var supportedCompounds = []string{"ADP", "ATP", "STI", "ZID", "DPM", "XP9", "18W", "29P"}

// SupportedCompounds returns a copy of the allow-list.
func SupportedCompounds() []string {
	out := make([]string, len(supportedCompounds))
	copy(out, supportedCompounds)
	return out
}

// IsSupported reports whether code, after normalisation, is allow-listed.
func IsSupported(code string) bool {
	code = NormalizeCode(code)
	for _, c := range supportedCompounds {
		if c == code {
			return true
		}
	}
	return false
}

// NormalizeCode trims surrounding whitespace and upper-cases a compound code.
// A Caser is stateful, so one is built per call.
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}
