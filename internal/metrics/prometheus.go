package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	CoinsMovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cucm_coins_moved_total",
		Help: "Total coins moved through the ledger by transaction type and direction",
	}, []string{"type", "direction"})

	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cucm_transactions_total",
		Help: "Total ledger transactions committed by type",
	}, []string{"type"})

	RedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cucm_code_redemptions_total",
		Help: "Code redemption attempts by result",
	}, []string{"result"})

	GiftSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cucm_gift_sends_total",
		Help: "Gift send attempts by result",
	}, []string{"result"})

	TicketsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cucm_tickets_sold_total",
		Help: "Total tickets sold",
	})

	CodeGenerationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cucm_code_generation_retries_total",
		Help: "Total collisions hit while generating redemption codes",
	})

	SettingsCacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cucm_settings_cache_refreshes_total",
		Help: "System settings cache refreshes by result",
	}, []string{"result"})
)

func AddCoinsMoved(txType, direction string, amount int64) {
	if amount <= 0 {
		return
	}
	CoinsMovedTotal.WithLabelValues(labelOrUnknown(txType), labelOrUnknown(direction)).Add(float64(amount))
	TransactionsTotal.WithLabelValues(labelOrUnknown(txType)).Inc()
}

func IncRedemption(result string) {
	RedemptionsTotal.WithLabelValues(labelOrUnknown(result)).Inc()
}

func IncGiftSend(result string) {
	GiftSendsTotal.WithLabelValues(labelOrUnknown(result)).Inc()
}

func AddTicketsSold(count int64) {
	if count > 0 {
		TicketsSoldTotal.Add(float64(count))
	}
}

func IncCodeGenerationRetry() {
	CodeGenerationRetries.Inc()
}

func IncSettingsCacheRefresh(result string) {
	SettingsCacheRefreshes.WithLabelValues(labelOrUnknown(result)).Inc()
}

func labelOrUnknown(value string) string {
	label := strings.TrimSpace(value)
	if label == "" {
		return "unknown"
	}
	return label
}
