package stats

type MetricID string

const (
	MetricVPIP           MetricID = "vpip"
	MetricPFR            MetricID = "pfr"
	MetricThreeBet       MetricID = "three_bet"
	MetricFoldToThreeBet MetricID = "fold_to_three_bet"
	MetricFlopCBet       MetricID = "flop_cbet"
	MetricWTSD           MetricID = "wtsd"
	MetricWSD            MetricID = "w_sd"
	MetricWWSF           MetricID = "wwsf"
	MetricWonWithoutSD   MetricID = "won_without_showdown"
	MetricBBPer100       MetricID = "bb_per_100"
)

type MetricSampleClass int

const (
	SampleClassHands MetricSampleClass = iota
	SampleClassSituational
)

type MetricFormat int

const (
	MetricFormatPercent MetricFormat = iota
	MetricFormatBBPer100
)

type MetricDefinition struct {
	ID          MetricID
	Label       string
	SampleClass MetricSampleClass
	Format      MetricFormat
}

// MetricValue is one computed metric. Rate is a fraction for percent
// metrics and big blinds per 100 hands for bb/100.
type MetricValue struct {
	ID          MetricID
	Label       string
	Count       int
	Opportunity int
	Rate        float64
	Confident   bool
	MinSample   int
	Format      MetricFormat
}

const (
	handFrequencyThreshold = 200
	situationalThreshold   = 50
)

// Registry lists the metrics in display order.
var Registry = []MetricDefinition{
	{ID: MetricVPIP, Label: "VPIP", SampleClass: SampleClassHands, Format: MetricFormatPercent},
	{ID: MetricPFR, Label: "PFR", SampleClass: SampleClassHands, Format: MetricFormatPercent},
	{ID: MetricThreeBet, Label: "3Bet", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricFoldToThreeBet, Label: "Fold to 3Bet", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricFlopCBet, Label: "Flop CBet", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWTSD, Label: "WTSD", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWSD, Label: "W$SD", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWWSF, Label: "WWSF", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWonWithoutSD, Label: "Won w/o SD", SampleClass: SampleClassHands, Format: MetricFormatPercent},
	{ID: MetricBBPer100, Label: "bb/100", SampleClass: SampleClassHands, Format: MetricFormatBBPer100},
}

func confidenceThreshold(class MetricSampleClass) int {
	if class == SampleClassSituational {
		return situationalThreshold
	}
	return handFrequencyThreshold
}
