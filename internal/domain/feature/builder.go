package feature

import (
	"math"
	"strings"
	"time"

	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/velocity"
)

const (
	highValueAmount = 1000
	newAccountDays  = 30
	highRiskScore   = 0.7
	spikeCount      = 5
)

var txnTypeCodes = map[string]float64{
	"purchase":   0,
	"withdrawal": 1,
	"transfer":   2,
	"refund":     3,
	"deposit":    4,
}

const unknownTypeCode = 5

// Builder assembles feature vectors. It carries only static reference data
// (merchant risk scores); all per-transaction state arrives as arguments.
type Builder struct {
	merchantRisk map[string]float64
	defaultRisk  float64
}

// NewBuilder builds a Builder using the given merchant risk table. Merchants
// absent from the table get defaultRisk.
func NewBuilder(merchantRisk map[string]float64, defaultRisk float64) *Builder {
	return &Builder{merchantRisk: merchantRisk, defaultRisk: defaultRisk}
}

// Build computes the full vector for a transaction. Missing context never
// fails the build: features backed by absent history take documented
// defaults, zeros for velocity and ratios against empty windows, a neutral
// 1.0 for ratios against an absent profile average.
func (b *Builder) Build(
	txn model.Transaction,
	vel velocity.Profile,
	user, merchant repository.ProfileStats,
	pairCount int,
) []float64 {
	v := make([]float64, Count)
	amount := txn.Amount.InexactFloat64()
	asOf := txn.Timestamp

	// Transaction features.
	v[Amount] = amount
	v[AmountLog] = math.Log1p(amount)
	if std := user.StdDevAmount(); std > 0 {
		v[AmountZScore] = (amount - user.AvgAmount()) / std
	}
	v[IsHighValue] = boolFeat(amount > highValueAmount)
	v[IsRoundAmount] = boolFeat(math.Mod(amount, 10) == 0)
	v[HourOfDay] = float64(asOf.Hour())
	v[DayOfWeek] = float64(asOf.Weekday())
	v[IsWeekend] = boolFeat(asOf.Weekday() == time.Saturday || asOf.Weekday() == time.Sunday)
	v[IsNight] = boolFeat(isNight(asOf))
	v[TxnTypeCode] = typeCode(txn.Type)

	// Velocity features.
	v[CountHour] = float64(vel.Hour.Count)
	v[CountDay] = float64(vel.Day.Count)
	v[CountWeek] = float64(vel.Week.Count)
	v[SumHour] = vel.Hour.Sum
	v[SumDay] = vel.Day.Sum
	v[SumWeek] = vel.Week.Sum
	v[AvgDay] = vel.Day.Avg
	if vel.Day.Avg > 0 {
		v[AmountVsAvgDay] = amount / vel.Day.Avg
	}
	v[RatioCountHourDay] = float64(vel.Hour.Count) / math.Max(float64(vel.Day.Count), 1)
	v[RatioCountDayWeek] = float64(vel.Day.Count) / math.Max(float64(vel.Week.Count), 1)

	// User profile features.
	userAge := ageDays(user, asOf)
	v[UserAgeDays] = userAge
	v[UserAgeLog] = math.Log1p(userAge)
	v[UserTxnCount] = float64(user.TxnCount)
	v[UserAvgAmount] = user.AvgAmount()
	v[UserAmountStdDev] = user.StdDevAmount()
	v[UserIsNew] = boolFeat(user.TxnCount == 0 || userAge < newAccountDays)
	if user.TxnCount > 0 {
		v[UserDaysSinceLast] = asOf.Sub(user.LastSeen).Hours() / 24
	}
	v[UserTxnPerDay] = float64(user.TxnCount) / math.Max(userAge, 1)
	v[UserTotalAmountLog] = math.Log1p(user.TotalAmount)
	v[UserIsFirstTxn] = boolFeat(user.TxnCount == 0)

	// Merchant profile features.
	merchantAge := ageDays(merchant, asOf)
	risk := b.riskScore(txn.MerchantID)
	v[MerchantTxnCount] = float64(merchant.TxnCount)
	v[MerchantAvgAmount] = merchant.AvgAmount()
	v[MerchantAmountStdDev] = merchant.StdDevAmount()
	v[MerchantAgeDays] = merchantAge
	v[MerchantTxnPerDay] = float64(merchant.TxnCount) / math.Max(merchantAge, 1)
	v[MerchantRiskScore] = risk
	v[MerchantIsNew] = boolFeat(merchant.TxnCount == 0 || merchantAge < newAccountDays)
	v[MerchantIsHighRisk] = boolFeat(risk > highRiskScore)
	v[MerchantTotalAmountLog] = math.Log1p(merchant.TotalAmount)
	v[MerchantIsFirstTxn] = boolFeat(merchant.TxnCount == 0)

	// Derived interaction features.
	v[AmountVsUserAvg] = ratioOrNeutral(amount, user.AvgAmount())
	v[AmountVsMerchantAvg] = ratioOrNeutral(amount, merchant.AvgAmount())
	if std := user.StdDevAmount(); std > 0 {
		v[AmountDevUserStdDev] = math.Abs(amount-user.AvgAmount()) / std
	}
	if std := merchant.StdDevAmount(); std > 0 {
		v[AmountDevMerchantStdDev] = math.Abs(amount-merchant.AvgAmount()) / std
	}
	v[PairIsFirst] = boolFeat(pairCount == 0)
	v[PairTxnCount] = float64(pairCount)
	v[VelocitySpike] = boolFeat(vel.Hour.Count >= spikeCount)
	if avg := user.AvgAmount(); avg > 0 {
		v[SumHourVsUserAvg] = vel.Hour.Sum / avg
	}
	v[NightAndHighValue] = v[IsNight] * v[IsHighValue]
	v[NewUserHighValue] = v[UserIsNew] * v[IsHighValue]

	return v
}

func (b *Builder) riskScore(merchantID string) float64 {
	if r, ok := b.merchantRisk[merchantID]; ok {
		return r
	}
	return b.defaultRisk
}

// ageDays measures profile age at asOf, zero for never-seen entities.
func ageDays(p repository.ProfileStats, asOf time.Time) float64 {
	if p.TxnCount == 0 || p.FirstSeen.IsZero() {
		return 0
	}
	d := asOf.Sub(p.FirstSeen).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// ratioOrNeutral returns amount/base, or 1.0 when there is no base to
// compare against. The neutral value keeps cold profiles from reading as
// either a multiple or a fraction of their own history.
func ratioOrNeutral(amount, base float64) float64 {
	if base <= 0 {
		return 1
	}
	return amount / base
}

func isNight(t time.Time) bool {
	h := t.Hour()
	return h >= 23 || h < 6
}

func typeCode(txnType string) float64 {
	if code, ok := txnTypeCodes[strings.ToLower(strings.TrimSpace(txnType))]; ok {
		return code
	}
	return unknownTypeCode
}

func boolFeat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
