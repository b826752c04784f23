package app

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/must-gpa/chartlet/internal/batch"
	"github.com/must-gpa/chartlet/internal/chart"
	"github.com/must-gpa/chartlet/internal/config"
	"github.com/must-gpa/chartlet/internal/ctxutil"
	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/r2client"
	"github.com/must-gpa/chartlet/internal/sentry"
	"github.com/must-gpa/chartlet/internal/storage"
)

// Response headers set by the chart endpoints.
const (
	HeaderArchiveKey  = "X-Archive-Key"
	HeaderPlaceholder = "X-Chart-Placeholder"
)

const (
	msgInternal = "Something went wrong. Please try again later."
	msgTimeout  = "The request took too long. Please try again."
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	defaultStatsWindow  = 24 * time.Hour
)

type gpaRequest struct {
	RollNumber string `json:"roll_number" form:"roll_number"`
}

type chartResponse struct {
	RollNumber string `json:"roll_number"`
	ChartURL   string `json:"chart_url"`
	Available  bool   `json:"available"`
	Error      string `json:"error,omitempty"`
}

// errorStatus maps the error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case domerrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case domerrors.IsDownloadBlocked(err):
		return http.StatusForbidden
	case domerrors.IsRateLimitExceeded(err):
		return http.StatusTooManyRequests
	case domerrors.IsNotFound(err):
		return http.StatusNotFound
	case domerrors.IsNetwork(err):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"error": ...} plus any extra fields, counts the
// failure and forwards unexpected errors to Sentry.
func (a *Application) abortWithError(c *gin.Context, err error, extra gin.H) {
	status := errorStatus(err)
	body := gin.H{"error": userMessage(status, err)}
	for k, v := range extra {
		body[k] = v
	}

	if a.metrics != nil {
		a.metrics.RecordHTTPError(domerrors.Kind(err), c.FullPath())
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	sentry.CaptureException(c.Request.Context(), err)
	c.AbortWithStatusJSON(status, body)
}

// userMessage hides internal error text behind a generic message unless
// the error carries its own user-facing one.
func userMessage(status int, err error) string {
	var wrapped *domerrors.WrappedError
	switch {
	case errors.As(err, &wrapped):
		return wrapped.UserMessage
	case status == http.StatusGatewayTimeout:
		return msgTimeout
	case status == http.StatusInternalServerError:
		return msgInternal
	default:
		return domerrors.GetUserMessage(err)
	}
}

// withRoll tags the request context with the submitted roll number.
func withRoll(c *gin.Context, rollNumber string) context.Context {
	ctx := ctxutil.WithRoll(c.Request.Context(), rollNumber)
	c.Request = c.Request.WithContext(ctx)
	return ctx
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.DatabaseBusyTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"strategies": gin.H{
			"probe":    a.resolver.ProbeStrategy(),
			"download": a.resolver.DownloadStrategy(),
		},
		"archive": a.archive != nil,
	})
}

// getGPA answers the web form: is there a chart for this roll number?
func (a *Application) getGPA(c *gin.Context) {
	var req gpaRequest
	if err := c.ShouldBind(&req); err != nil {
		a.recordLookups(c.Request.Context(), storage.KindLookup, invalidRecord(req.RollNumber))
		a.abortWithError(c, domerrors.NewValidationError("roll_number", domerrors.MsgEmptyRoll), nil)
		return
	}
	ctx := withRoll(c, req.RollNumber)

	result, err := a.resolver.Lookup(ctx, req.RollNumber)
	if err != nil {
		a.recordLookups(ctx, storage.KindLookup, invalidRecord(req.RollNumber))
		a.abortWithError(c, err, nil)
		return
	}
	a.recordLookups(ctx, storage.KindLookup, lookupRecord(result.Roll.String(), result.Err))

	if !result.Available {
		a.abortWithError(c, notFound(result.URL, result.Err), gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"roll_number": result.Roll.String(),
		"chart_url":   result.URL,
		"available":   true,
	})
}

// notFound makes sure an unavailable chart always maps to 404: a probe
// that failed on transport still means the chart could not be loaded.
func notFound(url string, err error) error {
	if domerrors.IsNotFound(err) {
		return err
	}
	return domerrors.NewNotFoundError(url, 0, err)
}

func (a *Application) getChart(c *gin.Context) {
	input := c.Param("roll")
	ctx := withRoll(c, input)

	result, err := a.resolver.Lookup(ctx, input)
	if err != nil {
		a.recordLookups(ctx, storage.KindLookup, invalidRecord(input))
		a.abortWithError(c, err, nil)
		return
	}
	a.recordLookups(ctx, storage.KindLookup, lookupRecord(result.Roll.String(), result.Err))

	resp := chartResponse{
		RollNumber: result.Roll.String(),
		ChartURL:   result.URL,
		Available:  result.Available,
	}
	if result.Err != nil {
		resp.Error = domerrors.GetUserMessage(result.Err)
	}
	c.JSON(http.StatusOK, resp)
}

func (a *Application) downloadChart(c *gin.Context) {
	input := c.Param("roll")
	ctx := withRoll(c, input)

	d, err := a.resolver.Download(ctx, input, c.Query("name"))
	if err != nil {
		if domerrors.IsInvalidInput(err) {
			a.recordLookups(ctx, storage.KindDownload, invalidRecord(input))
			a.abortWithError(c, err, nil)
			return
		}
		ref, _ := a.resolver.Resolve(input)
		a.recordLookups(ctx, storage.KindDownload, lookupRecord(ref.Roll.String(), err))
		a.abortWithError(c, err, gin.H{"chart_url": ref.URL})
		return
	}

	ref, _ := a.resolver.Resolve(input)
	rec := lookupRecord(ref.Roll.String(), nil)
	if d.Placeholder {
		rec.Outcome = storage.OutcomePlaceholder
	}
	a.recordLookups(ctx, storage.KindDownload, rec)

	if d.RedirectURL != "" {
		c.Redirect(http.StatusFound, d.RedirectURL)
		return
	}
	if d.Placeholder {
		c.Header(HeaderPlaceholder, "true")
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	c.Data(http.StatusOK, d.ContentType, d.Content)
}

type rangeItem struct {
	RollNumber string `json:"roll_number"`
	ChartURL   string `json:"chart_url"`
	Available  bool   `json:"available"`
	Error      string `json:"error,omitempty"`
}

// checkRange reports availability for every roll in first..last, in order.
func (a *Application) checkRange(c *gin.Context) {
	first, last := c.Query("first"), c.Query("last")
	refs, err := a.batch.Range(first, last)
	if err != nil {
		a.recordLookups(c.Request.Context(), storage.KindRange, invalidRecord(first+".."+last))
		a.abortWithError(c, err, nil)
		return
	}
	ctx := c.Request.Context()

	results, err := a.batch.Check(ctx, refs, nil)
	if err != nil {
		a.abortWithError(c, err, nil)
		return
	}

	items := make([]rangeItem, len(results))
	recs := make([]storage.LookupRecord, len(results))
	available := 0
	for i, r := range results {
		items[i] = rangeItem{
			RollNumber: r.Roll.String(),
			ChartURL:   r.URL,
			Available:  r.Available,
		}
		if r.Err != nil {
			items[i].Error = domerrors.GetUserMessage(r.Err)
		} else {
			available++
		}
		recs[i] = lookupRecord(r.Roll.String(), r.Err)
	}
	a.recordLookups(ctx, storage.KindRange, recs...)

	c.JSON(http.StatusOK, gin.H{
		"first":     refs[0].Roll.String(),
		"last":      refs[len(refs)-1].Roll.String(),
		"count":     len(items),
		"available": available,
		"items":     items,
	})
}

// bundleRange fetches every chart in first..last, stamps it and returns one
// PDF. With the archive enabled the bundle is also kept in R2.
func (a *Application) bundleRange(c *gin.Context) {
	first, last := c.Query("first"), c.Query("last")
	refs, err := a.batch.Range(first, last)
	if err != nil {
		a.recordLookups(c.Request.Context(), storage.KindRange, invalidRecord(first+".."+last))
		a.abortWithError(c, err, nil)
		return
	}
	ctx := c.Request.Context()

	items, err := a.batch.Fetch(ctx, refs, nil)
	if err != nil {
		a.abortWithError(c, err, nil)
		return
	}

	var buf bytes.Buffer
	if err := batch.Bundle(&buf, items); err != nil {
		a.abortWithError(c, domerrors.NewWrapper("batch", "bundle").Wrap(err, "Error converting or saving PDF"), nil)
		return
	}

	recs := make([]storage.LookupRecord, len(items))
	for i, it := range items {
		recs[i] = lookupRecord(it.Roll.String(), it.Err)
	}
	a.recordLookups(ctx, storage.KindRange, recs...)

	name := chart.SanitizeName(c.Query("name"))
	if name == "" {
		name = refs[0].Roll.String() + "_" + refs[len(refs)-1].Roll.String()
	}
	if key := a.archiveBundle(ctx, name, buf.Bytes()); key != "" {
		c.Header(HeaderArchiveKey, key)
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name + ".pdf"}))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// archiveBundle uploads pdf to R2 and returns its key. Archive failures are
// logged and never fail the request.
func (a *Application) archiveBundle(ctx context.Context, name string, pdf []byte) string {
	if a.archive == nil {
		return ""
	}
	uploadCtx, cancel := context.WithTimeout(ctx, config.ArchiveUpload)
	defer cancel()

	key, err := a.archive.ArchivePDF(uploadCtx, name, pdf)
	if err != nil {
		a.logger.WithError(err).WithField("name", name).Warn("Bundle archive upload failed")
		sentry.CaptureException(ctx, err)
		if a.metrics != nil {
			a.metrics.RecordArchiveUpload("error")
		}
		return ""
	}
	if a.metrics != nil {
		a.metrics.RecordArchiveUpload("success")
	}
	a.logger.WithField("key", key).WithField("bytes", len(pdf)).Info("Bundle archived")
	return key
}

// archivedBundle streams a bundle previously stored under X-Archive-Key.
// HEAD answers from object metadata only.
func (a *Application) archivedBundle(c *gin.Context) {
	if a.archive == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Bundle archive is not enabled"})
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	ctx := c.Request.Context()
	wrap := domerrors.NewWrapper("archive", "open")

	if c.Request.Method == http.MethodHead {
		etag, err := a.archive.Stat(ctx, key)
		if err != nil {
			a.archiveError(c, wrap, key, err)
			return
		}
		c.Header("ETag", strconv.Quote(etag))
		c.Status(http.StatusOK)
		return
	}

	b, err := a.archive.Open(ctx, key)
	if err != nil {
		a.archiveError(c, wrap, key, err)
		return
	}
	defer func() { _ = b.Body.Close() }()

	c.DataFromReader(http.StatusOK, b.Size, "application/pdf", b.Body, map[string]string{
		"ETag":                strconv.Quote(b.ETag),
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}),
	})
}

func (a *Application) archiveError(c *gin.Context, wrap *domerrors.ErrorWrapper, key string, err error) {
	if errors.Is(err, r2client.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Bundle not found", "key": key})
		return
	}
	a.abortWithError(c, wrap.Wrap(err, "Could not read the archived bundle"), gin.H{"key": key})
}

// chartHistory lists recent lookups for one roll number, newest first.
func (a *Application) chartHistory(c *gin.Context) {
	ref, err := a.resolver.Resolve(c.Param("roll"))
	if err != nil {
		a.abortWithError(c, err, nil)
		return
	}

	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			a.abortWithError(c, domerrors.NewValidationError("limit", "limit must be a positive integer"), nil)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := a.db.RecentLookups(c.Request.Context(), ref.Roll.String(), limit)
	if err != nil {
		a.abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roll_number": ref.Roll.String(),
		"lookups":     recs,
	})
}

// lookupStats counts lookups per kind and outcome over a trailing window.
func (a *Application) lookupStats(c *gin.Context) {
	window := defaultStatsWindow
	if s := c.Query("window"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			a.abortWithError(c, domerrors.NewValidationError("window", "window must be a positive duration such as 24h"), nil)
			return
		}
		window = d
	}

	since := time.Now().Add(-window)
	counts, err := a.db.Stats(c.Request.Context(), since)
	if err != nil {
		a.abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"since":  since.UTC().Format(time.RFC3339),
		"counts": counts,
	})
}

func lookupRecord(rollNumber string, err error) storage.LookupRecord {
	return storage.LookupRecord{
		RollNumber: rollNumber,
		Outcome:    lookupOutcome(err),
	}
}

// invalidRecord keeps a rejected submission as typed.
func invalidRecord(input string) storage.LookupRecord {
	input = strings.TrimSpace(input)
	if len(input) > storage.MaxRollLength {
		input = strings.ToValidUTF8(input[:storage.MaxRollLength], "")
	}
	return storage.LookupRecord{RollNumber: input, Outcome: storage.OutcomeInvalid}
}

func lookupOutcome(err error) string {
	switch domerrors.Kind(err) {
	case "ok":
		return storage.OutcomeAvailable
	case "invalid":
		return storage.OutcomeInvalid
	case "blocked":
		return storage.OutcomeBlocked
	case "network_error":
		return storage.OutcomeNetworkError
	case "not_found":
		return storage.OutcomeNotFound
	default:
		return storage.OutcomeError
	}
}

// recordLookups writes history after the response without holding it up.
// Failures only cost an audit row.
func (a *Application) recordLookups(ctx context.Context, kind storage.LookupKind, recs ...storage.LookupRecord) {
	if len(recs) == 0 {
		return
	}
	bg := ctxutil.PreserveTracing(ctx)
	requestID, _ := ctxutil.GetRequestID(bg)
	clientIP := ctxutil.GetClientIP(bg)
	for i := range recs {
		recs[i].Kind = kind
		recs[i].RequestID = requestID
		recs[i].ClientIP = clientIP
	}

	a.wg.Go(func() {
		writeCtx, cancel := context.WithTimeout(bg, config.DatabaseBusyTimeout)
		defer cancel()
		if err := a.db.RecordLookups(writeCtx, recs); err != nil {
			a.logger.WithError(err).WithField("kind", string(kind)).Warn("Failed to record lookup history")
		}
	})
}
