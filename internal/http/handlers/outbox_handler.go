// Outbox and delivery HTTP handlers.
//
// Endpoints:
//   - GET    /outbox         (list queued records, paginated)
//   - GET    /outbox/status  (queue counters and retry state)
//   - GET    /outbox/export  (CSV snapshot of the queue)
//   - POST   /outbox/send    (one delivery pass now)
//   - POST   /outbox/retry   (start the periodic retry loop)
//   - DELETE /outbox/retry   (stop the retry loop)
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/services"
	"github.com/demographikon/go-canvass-sync/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRecordsResponse wraps a page of queued records.
type ListRecordsResponse struct {
	Records    []domain.Record `json:"records"`
	Pagination Pagination      `json:"pagination"`
}

// OutboxStatusResponse summarizes the queue and the retry loop.
type OutboxStatusResponse struct {
	Total        int64 `json:"total"`
	Unsent       int64 `json:"unsent"`
	RetryRunning bool  `json:"retry_running"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ListOutbox godoc
// @ID          listOutbox
// @Summary     List queued records (paginated)
// @Tags        Outbox
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRecordsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /outbox [get]
func (h *Handlers) ListOutbox(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.outbox.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRecordsResponse{
		Records: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// OutboxStatus godoc
// @ID          outboxStatus
// @Summary     Queue counters and retry state
// @Tags        Outbox
// @Produce     json
//
// @Success     200  {object}  handlers.OutboxStatusResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /outbox/status [get]
func (h *Handlers) OutboxStatus(c *gin.Context) {
	total, unsent, err := h.outbox.Status(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, OutboxStatusResponse{
		Total:        total,
		Unsent:       unsent,
		RetryRunning: h.delivery.Running(),
	})
}

// ExportOutbox godoc
// @ID          exportOutbox
// @Summary     Export the queue as CSV
// @Description Returns every queued record as a CSV attachment, sent and unsent alike.
// @Tags        Outbox
// @Produce     text/csv
//
// @Success     200  {string}  string  "CSV payload"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /outbox/export [get]
func (h *Handlers) ExportOutbox(c *gin.Context) {
	recs, err := h.outbox.All(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	csv := utils.RecordsCSV(recs)
	c.Header("Content-Disposition", `attachment; filename="outbox.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// SendOutbox godoc
// @ID          sendOutbox
// @Summary     Run one delivery pass
// @Description Attempts every unsent record once, in order, and reports per-pass counters. Failures stay queued; a backup-channel failure is reported but never fails the pass.
// @Tags        Outbox
// @Produce     json
//
// @Success     200  {object}  services.Summary
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     500  {object}  handlers.ErrorResponse  "Pass could not run"
// @Router      /outbox/send [post]
func (h *Handlers) SendOutbox(c *gin.Context) {
	sum, err := h.delivery.SendAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoSession) {
			fail(c, http.StatusUnauthorized, ErrCodeNoSession, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSendFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// StartRetry godoc
// @ID          startRetry
// @Summary     Start the periodic retry loop
// @Description Launches a background loop that re-attempts unsent records until the queue drains or the loop is stopped.
// @Tags        Outbox
//
// @Success     202  {string}  string  "Accepted"
// @Failure     409  {object}  handlers.ErrorResponse  "Retry loop already running"
// @Router      /outbox/retry [post]
func (h *Handlers) StartRetry(c *gin.Context) {
	// The loop must outlive this request; only values (trace context)
	// are carried over.
	if err := h.delivery.StartRetry(context.WithoutCancel(c.Request.Context())); err != nil {
		if errors.Is(err, services.ErrRetryRunning) {
			fail(c, http.StatusConflict, ErrCodeRetryRunning, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Status(http.StatusAccepted)
}

// StopRetry godoc
// @ID          stopRetry
// @Summary     Stop the retry loop
// @Description Cancels the loop and waits for it to exit. Safe to call when no loop is running.
// @Tags        Outbox
//
// @Success     204  {string}  string  "No Content"
// @Router      /outbox/retry [delete]
func (h *Handlers) StopRetry(c *gin.Context) {
	h.delivery.StopRetry()
	noContent(c)
}
