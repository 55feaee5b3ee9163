package handlers

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/compound-data-tool/internal/domain"
	"github.com/tbourn/compound-data-tool/internal/http/middleware"
	"github.com/tbourn/compound-data-tool/internal/render"
	"github.com/tbourn/compound-data-tool/internal/services"
	"github.com/tbourn/compound-data-tool/internal/sysutil"
)

// CompoundService is the part of services.CompoundService exposed over HTTP.
type CompoundService interface {
	Actualize(ctx context.Context, code string) (*domain.CompoundSummary, error)
	Show(ctx context.Context, code string) (*domain.CompoundSummary, error)
	List(ctx context.Context) iter.Seq2[domain.Stamp, error]
	Remove(ctx context.Context, code string) (int64, error)
	Supported() []string
	Stats(ctx context.Context) (int64, *time.Time, error)
}

var _ CompoundService = (*services.CompoundService)(nil)

// Handler serves the /compounds resource.
type Handler struct {
	Compounds CompoundService
}

// New returns a Handler over svc.
func New(svc CompoundService) *Handler {
	return &Handler{Compounds: svc}
}

// FieldResponse is one row of the stored projection.
type FieldResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompoundResponse carries a cached summary, its stored projection and the
// same table the CLI prints.
type CompoundResponse struct {
	Summary *domain.CompoundSummary `json:"summary"`
	Fields  []FieldResponse         `json:"fields"`
	Table   []string                `json:"table"`
}

// StampResponse is one entry of the cache listing.
type StampResponse struct {
	Compound string `json:"compound"`
	Updated  string `json:"updated"`
}

// SupportedResponse lists the allow-list in declaration order.
type SupportedResponse struct {
	Compounds []string `json:"compounds"`
}

func compoundResponse(rec *domain.CompoundSummary, wide bool) CompoundResponse {
	fields := rec.StoredFields()
	out := make([]FieldResponse, len(fields))
	for i, f := range fields {
		out[i] = FieldResponse{Name: f.Name, Value: f.Value}
	}
	return CompoundResponse{Summary: rec, Fields: out, Table: render.Compound(fields, wide)}
}

// ListCompounds handles GET /compounds. The weak ETag changes whenever a
// summary is saved or removed; a matching If-None-Match yields 304. Stats and
// the listing are separate reads, so a write landing between them can pair
// the older ETag with the newer body. The next request corrects it.
func (h *Handler) ListCompounds(c *gin.Context) {
	ctx := c.Request.Context()

	count, latest, err := h.Compounds.Stats(ctx)
	if err != nil {
		failFor(c, err)
		return
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"compounds:%d:%d"`, count, ts)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	out := []StampResponse{}
	for st, err := range h.Compounds.List(ctx) {
		if err != nil {
			failFor(c, err)
			return
		}
		out = append(out, StampResponse{Compound: st.Compound, Updated: st.UpdatedISO()})
	}
	ok(c, http.StatusOK, out)
}

// Supported handles GET /compounds/supported.
func (h *Handler) Supported(c *gin.Context) {
	ok(c, http.StatusOK, SupportedResponse{Compounds: h.Compounds.Supported()})
}

// GetCompound handles GET /compounds/:code. ?full=1 renders the table in
// wide mode.
func (h *Handler) GetCompound(c *gin.Context) {
	rec, err := h.Compounds.Show(c.Request.Context(), c.Param("code"))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, compoundResponse(rec, sysutil.IsTruthy(c.Query("full"))))
}

// ActualizeCompound handles POST /compounds/:code/actualize.
func (h *Handler) ActualizeCompound(c *gin.Context) {
	rec, err := h.Compounds.Actualize(c.Request.Context(), c.Param("code"))
	if err != nil {
		failFor(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().Str("compound", rec.Compound).Msg("compound actualized")
	ok(c, http.StatusOK, compoundResponse(rec, sysutil.IsTruthy(c.Query("full"))))
}

// RemoveCompound handles DELETE /compounds/:code.
func (h *Handler) RemoveCompound(c *gin.Context) {
	n, err := h.Compounds.Remove(c.Request.Context(), c.Param("code"))
	if err != nil {
		failFor(c, err)
		return
	}
	if n == 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "compound summary not cached: "+domain.NormalizeCode(c.Param("code")))
		return
	}
	noContent(c)
}
