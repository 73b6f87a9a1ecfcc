package cli

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mchmarny/riskctl/pkg/risk"
)

const maxBodySize = 1 << 16

type assessResponse struct {
	RequestID    string               `json:"request_id" yaml:"request_id"`
	Message      string               `json:"message" yaml:"message"`
	LoanToIncome string               `json:"loan_to_income" yaml:"loan_to_income"`
	Assessment   *risk.RiskAssessment `json:"assessment" yaml:"assessment"`
	Display      risk.Display         `json:"display" yaml:"display"`
}

type errorResponse struct {
	RequestID string            `json:"request_id,omitempty"`
	Error     string            `json:"error"`
	Fields    []risk.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}

func assessAPIHandler(scorer risk.Scorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r.Context())

		var app risk.LoanApplication
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&app); err != nil {
			slog.Debug("invalid request body", "error", err, "request_id", id)
			writeError(w, http.StatusBadRequest, errorResponse{RequestID: id, Error: "invalid request body"})
			return
		}
		normalize(&app)

		a, err := risk.Assess(scorer, &app)
		if err != nil {
			var ve *risk.ValidationError
			if errors.As(err, &ve) {
				writeError(w, http.StatusUnprocessableEntity, errorResponse{
					RequestID: id,
					Error:     risk.UserMessage(err),
					Fields:    ve.Fields,
				})
				return
			}
			slog.Error("scoring failed", "error", err, "request_id", id)
			writeError(w, http.StatusBadGateway, errorResponse{RequestID: id, Error: risk.UserMessage(err)})
			return
		}

		slog.Info("risk assessed", "score", a.CreditScore, "rating", a.Rating, "request_id", id)
		writeJSON(w, http.StatusOK, newAssessResponse(id, &app, a))
	}
}

func newAssessResponse(id string, app *risk.LoanApplication, a *risk.RiskAssessment) *assessResponse {
	return &assessResponse{
		RequestID:    id,
		Message:      risk.MsgComplete,
		LoanToIncome: risk.FormatRatio(app.LoanToIncome()),
		Assessment:   a,
		Display:      risk.Format(*a),
	}
}

func ratioAPIHandler(w http.ResponseWriter, r *http.Request) {
	f := formValues{
		Income:     r.URL.Query().Get("income"),
		LoanAmount: r.URL.Query().Get("loan_amount"),
	}
	writeJSON(w, http.StatusOK, map[string]string{"loan_to_income": f.ratio()})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}
