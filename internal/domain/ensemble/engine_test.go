package ensemble_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/vigil/internal/domain/ensemble"
	"github.com/okian/vigil/internal/domain/feature"
	"github.com/okian/vigil/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func defaultConfig() ensemble.Config {
	return ensemble.Config{
		SupervisedWeight:  0.7,
		AnomalyWeight:     0.3,
		FraudThreshold:    0.5,
		HighRiskThreshold: 0.75,
	}
}

func TestConfigValidate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(defaultConfig().Validate(), ShouldBeNil)
	})

	Convey("Given weights that do not sum to one", t, func() {
		cfg := defaultConfig()
		cfg.AnomalyWeight = 0.4
		So(errors.Is(cfg.Validate(), ensemble.ErrBadWeights), ShouldBeTrue)
	})

	Convey("Given a negative weight", t, func() {
		cfg := defaultConfig()
		cfg.SupervisedWeight = 1.3
		cfg.AnomalyWeight = -0.3
		So(errors.Is(cfg.Validate(), ensemble.ErrBadWeights), ShouldBeTrue)
	})

	Convey("Given thresholds out of range", t, func() {
		for _, cfg := range []ensemble.Config{
			{SupervisedWeight: 0.7, AnomalyWeight: 0.3, FraudThreshold: 0, HighRiskThreshold: 0.75},
			{SupervisedWeight: 0.7, AnomalyWeight: 0.3, FraudThreshold: 0.5, HighRiskThreshold: 1},
		} {
			So(errors.Is(cfg.Validate(), ensemble.ErrBadThresholds), ShouldBeTrue)
		}
	})

	Convey("Given a high-risk threshold at or below the fraud threshold", t, func() {
		cfg := defaultConfig()
		cfg.HighRiskThreshold = 0.5
		So(errors.Is(cfg.Validate(), ensemble.ErrBadThresholds), ShouldBeTrue)

		cfg.HighRiskThreshold = 0.4
		So(errors.Is(cfg.Validate(), ensemble.ErrBadThresholds), ShouldBeTrue)
	})
}

func TestEngineDecide(t *testing.T) {
	quiet := make([]float64, feature.Count)

	Convey("Given an engine with the default configuration", t, func() {
		eng, err := ensemble.NewEngine(defaultConfig())
		So(err, ShouldBeNil)

		Convey("Then the blend is the exact weighted sum", func() {
			v := eng.Decide(quiet, 1.0, 0.0)
			So(v.FraudScore, ShouldEqual, 0.7)
			So(v.IsFraud, ShouldBeTrue)
			So(v.RiskLevel, ShouldEqual, model.RiskMedium)
		})

		Convey("Then risk levels follow the thresholds", func() {
			So(eng.Decide(quiet, 0.2, 0.2).RiskLevel, ShouldEqual, model.RiskLow)
			So(eng.Decide(quiet, 0.6, 0.6).RiskLevel, ShouldEqual, model.RiskMedium)
			So(eng.Decide(quiet, 0.9, 0.9).RiskLevel, ShouldEqual, model.RiskHigh)
		})

		Convey("Then the fraud flag flips exactly at the threshold", func() {
			So(eng.Decide(quiet, 0.5, 0.5).IsFraud, ShouldBeTrue)
			So(eng.Decide(quiet, 0.49, 0.49).IsFraud, ShouldBeFalse)
		})

		Convey("Then a quiet vector yields no factors", func() {
			v := eng.Decide(quiet, 0.1, 0.1)
			So(v.RiskFactors, ShouldBeEmpty)
		})
	})

	Convey("Given vectors that trip individual rules", t, func() {
		eng, err := ensemble.NewEngine(defaultConfig())
		So(err, ShouldBeNil)

		factorWith := func(mutate func([]float64), anomaly float64) []string {
			vec := make([]float64, feature.Count)
			mutate(vec)
			return eng.Decide(vec, 0.1, anomaly).RiskFactors
		}

		Convey("Then an amount spike against recent average is flagged", func() {
			factors := factorWith(func(v []float64) {
				v[feature.CountDay] = 4
				v[feature.AmountVsAvgDay] = 3.5
			}, 0)
			So(factors, ShouldHaveLength, 1)
			So(factors[0], ShouldContainSubstring, "Unusual transaction amount")
			So(factors[0], ShouldContainSubstring, "3.5x")
		})

		Convey("Then an amount spike with no recent history is not flagged", func() {
			factors := factorWith(func(v []float64) {
				v[feature.AmountVsAvgDay] = 10
			}, 0)
			So(factors, ShouldBeEmpty)
		})

		Convey("Then hourly velocity is flagged at the threshold count", func() {
			factors := factorWith(func(v []float64) {
				v[feature.CountHour] = 5
			}, 0)
			So(factors, ShouldHaveLength, 1)
			So(factors[0], ShouldContainSubstring, "High velocity spending")
			So(factors[0], ShouldContainSubstring, "5 txns")
		})

		Convey("Then four prior transactions in the hour is quiet", func() {
			factors := factorWith(func(v []float64) {
				v[feature.CountHour] = 4
			}, 0)
			So(factors, ShouldBeEmpty)
		})

		Convey("Then an extreme anomaly score is flagged", func() {
			factors := factorWith(func(v []float64) {}, 0.95)
			So(factors, ShouldHaveLength, 1)
			So(factors[0], ShouldContainSubstring, "anomalous")
		})

		Convey("Then remaining single-signal rules fire on their feature", func() {
			cases := []struct {
				mutate func([]float64)
				want   string
			}{
				{func(v []float64) { v[feature.Amount] = 2000 }, "Large transaction amount"},
				{func(v []float64) { v[feature.MerchantRiskScore] = 0.9 }, "High-risk merchant"},
				{func(v []float64) { v[feature.UserIsNew] = 1 }, "New user account"},
				{func(v []float64) { v[feature.PairIsFirst] = 1 }, "First transaction with this merchant"},
				{func(v []float64) { v[feature.IsNight] = 1 }, "Unusual transaction hour"},
			}
			for _, c := range cases {
				factors := factorWith(c.mutate, 0)
				So(factors, ShouldHaveLength, 1)
				So(factors[0], ShouldContainSubstring, c.want)
			}
		})

		Convey("Then multiple factors come out most severe first", func() {
			vec := make([]float64, feature.Count)
			vec[feature.CountHour] = 6
			vec[feature.Amount] = 5000
			vec[feature.IsNight] = 1
			factors := eng.Decide(vec, 0.5, 0.95).RiskFactors

			So(factors, ShouldHaveLength, 4)
			So(strings.HasPrefix(factors[0], "High velocity"), ShouldBeTrue)
			So(strings.HasPrefix(factors[1], "Highly anomalous"), ShouldBeTrue)
			So(strings.HasPrefix(factors[2], "Large transaction"), ShouldBeTrue)
			So(factors[3], ShouldEqual, "Unusual transaction hour")
		})
	})

	Convey("Given custom rule thresholds", t, func() {
		eng, err := ensemble.NewEngine(defaultConfig(),
			ensemble.WithRuleThresholds(ensemble.RuleThresholds{HourlyTxnCount: 10}))
		So(err, ShouldBeNil)

		Convey("Then the overridden rule uses the new bar", func() {
			vec := make([]float64, feature.Count)
			vec[feature.CountHour] = 6
			So(eng.Decide(vec, 0.1, 0).RiskFactors, ShouldBeEmpty)

			vec[feature.CountHour] = 10
			So(eng.Decide(vec, 0.1, 0).RiskFactors, ShouldHaveLength, 1)
		})

		Convey("Then untouched rules keep their defaults", func() {
			vec := make([]float64, feature.Count)
			vec[feature.Amount] = 2000
			So(eng.Decide(vec, 0.1, 0).RiskFactors, ShouldHaveLength, 1)
		})
	})

	Convey("Given an invalid configuration", t, func() {
		_, err := ensemble.NewEngine(ensemble.Config{SupervisedWeight: 1, AnomalyWeight: 1})
		So(err, ShouldNotBeNil)
	})
}
