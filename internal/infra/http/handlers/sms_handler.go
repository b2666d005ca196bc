package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/infra/http/middleware"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

// SMSHandler receives the inbound-message callback from the SMS vendor
// (form-encoded From/Body, Twilio convention).
type SMSHandler struct {
	ReplyUC *usecase.HandleReplyUseCase
	Logger  *zap.Logger
}

func NewSMSHandler(replyUC *usecase.HandleReplyUseCase, logger *zap.Logger) *SMSHandler {
	return &SMSHandler{ReplyUC: replyUC, Logger: logger}
}

func (h *SMSHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad form payload")
		return
	}

	input := usecase.ReplyInput{
		FromPhone: r.PostFormValue("From"),
		Body:      r.PostFormValue("Body"),
	}
	if input.FromPhone == "" || input.Body == "" {
		writeError(w, http.StatusBadRequest, "From and Body are required")
		return
	}

	output, err := h.ReplyUC.Execute(r.Context(), input)
	if err != nil {
		// Unknown replies get no SMS back (avoids loops) and no error to
		// the vendor; they are logged for operator review.
		if errors.Is(err, usecase.ErrUnknownReply) {
			h.Logger.Warn("unrecognized sms reply",
				zap.String("from", input.FromPhone),
				zap.String("body", input.Body))
			w.WriteHeader(http.StatusOK)
			return
		}
		if usecase.IsNotFoundError(err) {
			h.Logger.Warn("sms reply from unknown number", zap.String("from", input.FromPhone))
			w.WriteHeader(http.StatusOK)
			return
		}
		writeUseCaseError(w, err)
		return
	}

	if output.Action == usecase.ReplyLinkSent {
		middleware.RecordPaymentLinkIssued()
	}
	writeJSON(w, http.StatusOK, output)
}
