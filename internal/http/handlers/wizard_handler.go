// Survey wizard HTTP handlers.
//
// Endpoints:
//   - GET  /wizard           (current view)
//   - POST /wizard/address   (select an unvisited address)
//   - POST /wizard/response  (choose a response kind; terminal kinds finalize)
//   - POST /wizard/answer    (answer the current step)
//   - POST /wizard/back      (step back one question)
//   - POST /wizard/abandon   (discard the draft)
//
// Finalizing endpoints return the queued record alongside the new view.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/services"
)

//
// DTOs
//

// SelectAddressRequest is the JSON payload for starting a pass.
type SelectAddressRequest struct {
	Address string `json:"address" binding:"required" example:"12 Mill Lane"`
}

// ChooseResponseRequest is the JSON payload for picking a response kind.
type ChooseResponseRequest struct {
	Response string `json:"response" binding:"required" example:"response"`
}

// AnswerRequest is the JSON payload for answering the current step. Single
// choice steps expect exactly one value; multi-select steps accept any
// subset; free-text steps take the text as the sole value.
type AnswerRequest struct {
	Values []string `json:"values"`
}

// WizardResponse is the state returned by every wizard endpoint. Record is
// present only when the call finalized a pass.
type WizardResponse struct {
	services.View
	Record *domain.Record `json:"record,omitempty"`
}

// wizardError translates state machine errors into the code taxonomy.
func wizardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoRoster):
		fail(c, http.StatusConflict, ErrCodeRosterNotLoaded, err.Error())
	case errors.Is(err, services.ErrUnknownAddress):
		fail(c, http.StatusNotFound, ErrCodeUnknownAddress, err.Error())
	case errors.Is(err, services.ErrInvalidOption), errors.Is(err, services.ErrStepIncomplete):
		fail(c, http.StatusBadRequest, ErrCodeInvalidOption, err.Error())
	case errors.Is(err, services.ErrNoAddress), errors.Is(err, services.ErrWizardState):
		fail(c, http.StatusConflict, ErrCodeWizardState, err.Error())
	case errors.Is(err, services.ErrMetadataIncomplete):
		fail(c, http.StatusBadGateway, ErrCodeMetadataIncomplete, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// GetWizard godoc
// @ID          getWizard
// @Summary     Current wizard view
// @Tags        Wizard
// @Produce     json
//
// @Success     200  {object}  handlers.WizardResponse
// @Router      /wizard [get]
func (h *Handlers) GetWizard(c *gin.Context) {
	view, err := h.wizard.Current(c.Request.Context())
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, http.StatusOK, WizardResponse{View: view})
}

// SelectAddress godoc
// @ID          selectAddress
// @Summary     Start a pass at a roster address
// @Description Selects an unvisited roster address and resets the draft. Selecting while a pass is active abandons the previous draft.
// @Tags        Wizard
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SelectAddressRequest  true  "Address payload"
//
// @Success     200  {object}  handlers.WizardResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Address not on the roster or already visited"
// @Failure     409  {object}  handlers.ErrorResponse  "Roster not loaded"
// @Router      /wizard/address [post]
func (h *Handlers) SelectAddress(c *gin.Context) {
	var req SelectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	view, err := h.wizard.SelectAddress(c.Request.Context(), strings.TrimSpace(req.Address))
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, http.StatusOK, WizardResponse{View: view})
}

// ChooseResponse godoc
// @ID          chooseResponse
// @Summary     Choose the response kind for the selected address
// @Description Terminal kinds finalize the record immediately; the continuing kind enters the question steps.
// @Tags        Wizard
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChooseResponseRequest  true  "Response kind payload"
//
// @Success     200  {object}  handlers.WizardResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown response kind"
// @Failure     409  {object}  handlers.ErrorResponse  "No address selected"
// @Router      /wizard/response [post]
func (h *Handlers) ChooseResponse(c *gin.Context) {
	var req ChooseResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	view, rec, err := h.wizard.ChooseResponse(c.Request.Context(), strings.TrimSpace(req.Response))
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, http.StatusOK, WizardResponse{View: view, Record: rec})
}

// AnswerStep godoc
// @ID          answerStep
// @Summary     Answer the current wizard step
// @Description Validates the values against the current step's options and advances. Answering the last step finalizes the record.
// @Tags        Wizard
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AnswerRequest  true  "Answer payload"
//
// @Success     200  {object}  handlers.WizardResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid or incomplete answer"
// @Failure     409  {object}  handlers.ErrorResponse  "Not currently stepping"
// @Router      /wizard/answer [post]
func (h *Handlers) AnswerStep(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	view, rec, err := h.wizard.Answer(c.Request.Context(), req.Values)
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, http.StatusOK, WizardResponse{View: view, Record: rec})
}

// StepBack godoc
// @ID          stepBack
// @Summary     Step back one question
// @Description Moves to the previous step; stepping back from the first question returns to response selection with prior answers discarded.
// @Tags        Wizard
// @Produce     json
//
// @Success     200  {object}  handlers.WizardResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Nothing to step back from"
// @Router      /wizard/back [post]
func (h *Handlers) StepBack(c *gin.Context) {
	view, err := h.wizard.Back(c.Request.Context())
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, http.StatusOK, WizardResponse{View: view})
}

// AbandonPass godoc
// @ID          abandonPass
// @Summary     Abandon the current pass
// @Description Discards the draft without queueing anything; the address stays available for a later pass.
// @Tags        Wizard
//
// @Success     204  {string}  string  "No Content"
// @Router      /wizard/abandon [post]
func (h *Handlers) AbandonPass(c *gin.Context) {
	if err := h.wizard.Abandon(c.Request.Context()); err != nil {
		wizardError(c, err)
		return
	}
	noContent(c)
}
