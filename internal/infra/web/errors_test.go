//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-ticket-ledger/internal/domain"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"lock wait ran out", domain.ErrTicketBusy, http.StatusConflict, "conflict"},
		{"deadline from the store", fmt.Errorf("load state: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"unknown failure", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			assert.Equal(t, tt.code, rec.Code)

			var body map[string]errorPayload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["error"].Kind)
		})
	}
}
