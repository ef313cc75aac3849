package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesStorefrontCounters(t *testing.T) {
	OrdersPlaced.Inc()
	OrderStatusChanges.WithLabelValues("Enviado").Inc()
	EmailsSent.WithLabelValues("ok").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "storefront_orders_placed_total")
	assert.Contains(t, string(body), `storefront_order_status_changes_total{status="Enviado"}`)
	assert.Contains(t, string(body), `storefront_notifier_emails_sent_total{result="ok"}`)
	assert.Contains(t, string(body), "go_goroutines")
}
