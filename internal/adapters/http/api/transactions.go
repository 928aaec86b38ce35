package api

import (
	"encoding/json"
	"net/http"
)

type submitResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// handleSubmit accepts a transaction for asynchronous scoring. The verdict
// is observable through logs, metrics, and the aggregate stats, not in the
// response.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	txn := req.toModel()
	if err := s.deps.Enqueue(txn); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{
		Status:        "accepted",
		TransactionID: txn.ID,
	})
}
