package ensemble

import (
	"fmt"

	"github.com/okian/vigil/internal/domain/feature"
)

// RuleThresholds tunes when each risk factor fires. Zero values are
// replaced by DefaultRuleThresholds.
type RuleThresholds struct {
	AmountVsAvgMultiple float64 // current amount vs 24h average
	HourlyTxnCount      int     // prior transactions in the last hour
	AnomalyScore        float64 // anomaly score considered extreme
	LargeAmount         float64 // absolute amount considered large
	MerchantRisk        float64 // merchant risk score considered high
}

// DefaultRuleThresholds returns the stock rule tuning.
func DefaultRuleThresholds() RuleThresholds {
	return RuleThresholds{
		AmountVsAvgMultiple: 3,
		HourlyTxnCount:      5,
		AnomalyScore:        0.9,
		LargeAmount:         1000,
		MerchantRisk:        0.7,
	}
}

type ruleInput struct {
	vec        []float64
	supervised float64
	anomaly    float64
}

// riskRule derives one explanation from the scored transaction. Rules are
// evaluated in declaration order, which is descending severity.
type riskRule struct {
	severity int
	apply    func(in ruleInput, t RuleThresholds) (string, bool)
}

var riskRules = []riskRule{
	{90, func(in ruleInput, t RuleThresholds) (string, bool) {
		ratio := in.vec[feature.AmountVsAvgDay]
		if in.vec[feature.CountDay] > 0 && ratio >= t.AmountVsAvgMultiple {
			return fmt.Sprintf("Unusual transaction amount (%.1fx recent average)", ratio), true
		}
		return "", false
	}},
	{80, func(in ruleInput, t RuleThresholds) (string, bool) {
		count := int(in.vec[feature.CountHour])
		if count >= t.HourlyTxnCount {
			return fmt.Sprintf("High velocity spending (%d txns in the last hour)", count), true
		}
		return "", false
	}},
	{70, func(in ruleInput, t RuleThresholds) (string, bool) {
		if in.anomaly >= t.AnomalyScore {
			return "Highly anomalous transaction pattern", true
		}
		return "", false
	}},
	{60, func(in ruleInput, t RuleThresholds) (string, bool) {
		if in.vec[feature.Amount] > t.LargeAmount {
			return fmt.Sprintf("Large transaction amount (%.2f)", in.vec[feature.Amount]), true
		}
		return "", false
	}},
	{50, func(in ruleInput, t RuleThresholds) (string, bool) {
		if in.vec[feature.MerchantRiskScore] > t.MerchantRisk {
			return "High-risk merchant", true
		}
		return "", false
	}},
	{40, func(in ruleInput, _ RuleThresholds) (string, bool) {
		if in.vec[feature.UserIsNew] > 0 {
			return "New user account", true
		}
		return "", false
	}},
	{30, func(in ruleInput, _ RuleThresholds) (string, bool) {
		if in.vec[feature.PairIsFirst] > 0 {
			return "First transaction with this merchant", true
		}
		return "", false
	}},
	{20, func(in ruleInput, _ RuleThresholds) (string, bool) {
		if in.vec[feature.IsNight] > 0 {
			return "Unusual transaction hour", true
		}
		return "", false
	}},
}

func (t RuleThresholds) withDefaults() RuleThresholds {
	d := DefaultRuleThresholds()
	if t.AmountVsAvgMultiple <= 0 {
		t.AmountVsAvgMultiple = d.AmountVsAvgMultiple
	}
	if t.HourlyTxnCount <= 0 {
		t.HourlyTxnCount = d.HourlyTxnCount
	}
	if t.AnomalyScore <= 0 {
		t.AnomalyScore = d.AnomalyScore
	}
	if t.LargeAmount <= 0 {
		t.LargeAmount = d.LargeAmount
	}
	if t.MerchantRisk <= 0 {
		t.MerchantRisk = d.MerchantRisk
	}
	return t
}
