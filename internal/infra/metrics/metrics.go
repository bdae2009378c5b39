package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 業務カウンタ
type Recorder struct {
	orderTransitions     *prometheus.CounterVec
	paymentVerifications *prometheus.CounterVec
	checkoutFailures     *prometheus.CounterVec
	autoRejected         prometheus.Counter
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by from/to status.",
		}, []string{"from", "to"}),
		paymentVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "payment_verifications_total",
			Help:      "Payment signature verifications by result.",
		}, []string{"result"}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "checkout_group_failures_total",
			Help:      "Per-seller checkout groups that failed, by reason.",
		}, []string{"reason"}),
		autoRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "service_offers_auto_rejected_total",
			Help:      "Service offers rejected by the review deadline sweep.",
		}),
	}
	reg.MustRegister(r.orderTransitions, r.paymentVerifications, r.checkoutFailures, r.autoRejected)
	return r
}

func (r *Recorder) OrderTransition(from, to string) {
	if from == "" {
		from = "none"
	}
	r.orderTransitions.WithLabelValues(from, to).Inc()
}

func (r *Recorder) PaymentVerification(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	r.paymentVerifications.WithLabelValues(result).Inc()
}

func (r *Recorder) CheckoutFailure(reason string) {
	r.checkoutFailures.WithLabelValues(reason).Inc()
}

func (r *Recorder) AutoRejected(n int) {
	r.autoRejected.Add(float64(n))
}
