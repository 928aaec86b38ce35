package scoring

import (
	"math"
	"math/rand"

	"github.com/okian/vigil/internal/domain/feature"
)

// builtinSeed fixes the default bundle's autoencoder weights so every
// process constructs byte-identical models.
const builtinSeed = 42

// DefaultBundle constructs the built-in model bundle used when no bundle
// file is configured. The supervised side is a small hand-set stump
// ensemble biased toward legitimacy for unremarkable inputs; the anomaly
// side is an untrained autoencoder with deterministic weights.
func DefaultBundle() *Bundle {
	return &Bundle{
		Version:    "builtin-1",
		Supervised: builtinSupervised(),
		Anomaly:    builtinAnomaly(),
	}
}

func builtinSupervised() SupervisedModel {
	return SupervisedModel{
		BaseScore: -1.5,
		Trees: []Tree{
			stump(feature.AmountVsUserAvg, 3, -0.3, 1.2),
			stump(feature.CountHour, 5, -0.2, 1.0),
			stump(feature.IsNight, 0.5, -0.1, 0.4),
			stump(feature.Amount, 1000, -0.2, 0.8),
			stump(feature.UserIsNew, 0.5, -0.1, 0.3),
			stump(feature.MerchantRiskScore, 0.7, -0.1, 0.6),
		},
	}
}

// stump builds a depth-one tree: vectors below the threshold take lo,
// the rest take hi.
func stump(feat int, threshold, lo, hi float64) Tree {
	return Tree{Nodes: []Node{
		{Feature: feat, Threshold: threshold, Left: 1, Right: 2},
		{Feature: -1, Value: lo},
		{Feature: -1, Value: hi},
	}}
}

func builtinAnomaly() AnomalyModel {
	means := make([]float64, feature.Count)
	stds := make([]float64, feature.Count)
	// Flag features default to a low base rate; numeric features get
	// scale overrides below.
	for i := range means {
		means[i] = 0.2
		stds[i] = 0.4
	}
	for idx, ms := range map[int][2]float64{
		feature.Amount:                  {150, 300},
		feature.AmountLog:               {4.5, 1.5},
		feature.AmountZScore:            {0, 1.5},
		feature.HourOfDay:               {13, 6},
		feature.DayOfWeek:               {3, 2},
		feature.TxnTypeCode:             {1, 1.5},
		feature.CountHour:               {1, 2},
		feature.CountDay:                {5, 8},
		feature.CountWeek:               {20, 30},
		feature.SumHour:                 {150, 500},
		feature.SumDay:                  {700, 2000},
		feature.SumWeek:                 {3000, 8000},
		feature.AvgDay:                  {120, 250},
		feature.AmountVsAvgDay:          {1, 2},
		feature.RatioCountHourDay:       {0.3, 0.3},
		feature.RatioCountDayWeek:       {0.4, 0.3},
		feature.UserAgeDays:             {180, 200},
		feature.UserAgeLog:              {4.5, 1.5},
		feature.UserTxnCount:            {50, 100},
		feature.UserAvgAmount:           {120, 200},
		feature.UserAmountStdDev:        {60, 100},
		feature.UserDaysSinceLast:       {3, 7},
		feature.UserTxnPerDay:           {0.5, 1},
		feature.UserTotalAmountLog:      {7, 3},
		feature.MerchantTxnCount:        {500, 1000},
		feature.MerchantAvgAmount:       {120, 200},
		feature.MerchantAmountStdDev:    {80, 120},
		feature.MerchantAgeDays:         {365, 300},
		feature.MerchantTxnPerDay:       {5, 10},
		feature.MerchantRiskScore:       {0.5, 0.2},
		feature.MerchantTotalAmountLog:  {9, 3},
		feature.AmountVsUserAvg:         {1.2, 1.5},
		feature.AmountVsMerchantAvg:     {1.2, 1.5},
		feature.AmountDevUserStdDev:     {0.8, 1},
		feature.AmountDevMerchantStdDev: {0.8, 1},
		feature.PairTxnCount:            {3, 8},
		feature.SumHourVsUserAvg:        {1, 3},
	} {
		means[idx] = ms[0]
		stds[idx] = ms[1]
	}

	rng := rand.New(rand.NewSource(builtinSeed))
	dims := []int{feature.Count, 16, 8, 16, feature.Count}
	layers := make([]Layer, 0, len(dims)-1)
	for d := 1; d < len(dims); d++ {
		in, out := dims[d-1], dims[d]
		scale := 1 / math.Sqrt(float64(in))
		weights := make([][]float64, out)
		for o := range weights {
			row := make([]float64, in)
			for i := range row {
				row[i] = rng.NormFloat64() * scale
			}
			weights[o] = row
		}
		activation := "relu"
		if d == len(dims)-1 {
			activation = "linear"
		}
		layers = append(layers, Layer{
			Weights:    weights,
			Biases:     make([]float64, out),
			Activation: activation,
		})
	}

	return AnomalyModel{
		Means:     means,
		Stds:      stds,
		Layers:    layers,
		Threshold: 2,
	}
}
