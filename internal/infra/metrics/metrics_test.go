package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.OrderTransition("", "pending")
	r.OrderTransition("pending", "payment_pending")
	r.OrderTransition("pending", "payment_pending")
	r.PaymentVerification(true)
	r.PaymentVerification(false)
	r.CheckoutFailure("out_of_stock")
	r.AutoRejected(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.orderTransitions.WithLabelValues("none", "pending")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.orderTransitions.WithLabelValues("pending", "payment_pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.paymentVerifications.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.paymentVerifications.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.checkoutFailures.WithLabelValues("out_of_stock")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.autoRejected))
}
