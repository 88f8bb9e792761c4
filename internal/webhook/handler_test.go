package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Sdiabate1337/reput/internal/models"
)

type stubInbound struct {
	err  error
	seen []models.InboundEvent
}

func (s *stubInbound) HandleInbound(ctx context.Context, ev models.InboundEvent) error {
	s.seen = append(s.seen, ev)
	return s.err
}

func postWebhook(t *testing.T, h *Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func TestInbound_HandledAcksWith200(t *testing.T) {
	stub := &stubInbound{}
	rec := postWebhook(t, NewHandler(stub, zap.NewNop()), validForm())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response>")
	assert.Len(t, stub.seen, 1)
}

func TestInbound_MalformedPayloadRejectedWith400(t *testing.T) {
	stub := &stubInbound{}
	form := validForm()
	form.Del("From")
	rec := postWebhook(t, NewHandler(stub, zap.NewNop()), form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stub.seen, "nothing must be processed for malformed input")
}

func TestInbound_ProcessingFailureInvitesRetry(t *testing.T) {
	stub := &stubInbound{err: errors.New("store unavailable")}
	rec := postWebhook(t, NewHandler(stub, zap.NewNop()), validForm())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	NewRouter(NewHandler(&stubInbound{}, zap.NewNop())).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
