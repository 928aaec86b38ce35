// Package feature turns a transaction plus its surrounding state into the
// fixed-width numeric vector both models consume.
package feature

// Count is the width of every feature vector. Model bundles are validated
// against it at load time.
const Count = 50

// Feature vector indices. The layout is part of the model contract: bundles
// reference features by index, so positions must never be reordered.
const (
	// Transaction features.
	Amount = iota
	AmountLog
	AmountZScore
	IsHighValue
	IsRoundAmount
	HourOfDay
	DayOfWeek
	IsWeekend
	IsNight
	TxnTypeCode

	// Velocity features.
	CountHour
	CountDay
	CountWeek
	SumHour
	SumDay
	SumWeek
	AvgDay
	AmountVsAvgDay
	RatioCountHourDay
	RatioCountDayWeek

	// User profile features.
	UserAgeDays
	UserAgeLog
	UserTxnCount
	UserAvgAmount
	UserAmountStdDev
	UserIsNew
	UserDaysSinceLast
	UserTxnPerDay
	UserTotalAmountLog
	UserIsFirstTxn

	// Merchant profile features.
	MerchantTxnCount
	MerchantAvgAmount
	MerchantAmountStdDev
	MerchantAgeDays
	MerchantTxnPerDay
	MerchantRiskScore
	MerchantIsNew
	MerchantIsHighRisk
	MerchantTotalAmountLog
	MerchantIsFirstTxn

	// Derived interaction features.
	AmountVsUserAvg
	AmountVsMerchantAvg
	AmountDevUserStdDev
	AmountDevMerchantStdDev
	PairIsFirst
	PairTxnCount
	VelocitySpike
	SumHourVsUserAvg
	NightAndHighValue
	NewUserHighValue
)

var names = [Count]string{
	"amount",
	"amount_log",
	"amount_zscore",
	"is_high_value",
	"is_round_amount",
	"hour_of_day",
	"day_of_week",
	"is_weekend",
	"is_night",
	"txn_type_code",
	"count_1h",
	"count_24h",
	"count_7d",
	"sum_1h",
	"sum_24h",
	"sum_7d",
	"avg_24h",
	"amount_vs_avg_24h",
	"ratio_count_1h_24h",
	"ratio_count_24h_7d",
	"user_age_days",
	"user_age_log",
	"user_txn_count",
	"user_avg_amount",
	"user_amount_stddev",
	"user_is_new",
	"user_days_since_last",
	"user_txn_per_day",
	"user_total_amount_log",
	"user_is_first_txn",
	"merchant_txn_count",
	"merchant_avg_amount",
	"merchant_amount_stddev",
	"merchant_age_days",
	"merchant_txn_per_day",
	"merchant_risk_score",
	"merchant_is_new",
	"merchant_is_high_risk",
	"merchant_total_amount_log",
	"merchant_is_first_txn",
	"amount_vs_user_avg",
	"amount_vs_merchant_avg",
	"amount_dev_user_stddev",
	"amount_dev_merchant_stddev",
	"pair_is_first",
	"pair_txn_count",
	"velocity_spike",
	"sum_1h_vs_user_avg",
	"night_and_high_value",
	"new_user_high_value",
}

// Name returns the stable name of the feature at index i, empty for
// out-of-range indices.
func Name(i int) string {
	if i < 0 || i >= Count {
		return ""
	}
	return names[i]
}
