package ledger

import (
	"github.com/govalues/money"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
	opInterest = "interest_sweep"
	opCharge   = "charge_sweep"
)

var (
	opsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bankcore",
			Name:      "operations_total",
			Help:      "Total ledger operations by outcome",
		},
		[]string{"op", "outcome"},
	)
	movedMinorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bankcore",
			Name:      "moved_minor_units_total",
			Help:      "Minor units moved by successful operations",
		},
		[]string{"op"},
	)
)

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	opsTotal.WithLabelValues(op, outcome).Inc()
}

func recordMoved(op string, amount money.Amount) {
	units, _ := amount.MinorUnits()
	if units > 0 {
		movedMinorTotal.WithLabelValues(op).Add(float64(units))
	}
}
