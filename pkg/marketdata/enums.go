package marketdata

// ContractType is the set of contract types a symbol can carry. Values are
// the exact strings the reference-data API matches on.
type ContractType string

const (
	ContractSpot                 ContractType = "spot"
	ContractForward              ContractType = "forward"
	ContractFuture               ContractType = "future"
	ContractSwap                 ContractType = "swap"
	ContractStrip                ContractType = "strip"
	ContractCFD                  ContractType = "cfd"
	ContractIndex                ContractType = "index"
	ContractOfficialSellingPrice ContractType = "official selling price"
	ContractYield                ContractType = "yield"
	ContractContract             ContractType = "contract"
	ContractESS                  ContractType = "ess"
	ContractPrompt               ContractType = "prompt"
	ContractStatistic            ContractType = "statistic"
	ContractEFP                  ContractType = "efp"
	ContractNetback              ContractType = "netback"
	ContractEFS                  ContractType = "efs"
	ContractRack                 ContractType = "rack"
)

// FilterValue returns the raw API value for filter expressions.
func (c ContractType) FilterValue() string { return string(c) }

// AssessmentFrequency is how often a symbol is assessed. Values are the
// exact strings the reference-data API matches on.
type AssessmentFrequency string

const (
	FrequencyIntraday         AssessmentFrequency = "Intraday"
	FrequencyDaily            AssessmentFrequency = "Daily (7 day)"
	FrequencyDailyWeekday     AssessmentFrequency = "Daily (weekday)"
	FrequencyDailyBidweekOnly AssessmentFrequency = "Daily (bidweek only)"
	FrequencySemiWeekly       AssessmentFrequency = "Semi-weekly"
	FrequencyWeekly           AssessmentFrequency = "Weekly"
	FrequencySemiMonthly      AssessmentFrequency = "Semi-monthly"
	FrequencyMonthly          AssessmentFrequency = "Monthly"
	FrequencyEveryOtherMonth  AssessmentFrequency = "Every other month"
	FrequencyQuarterly        AssessmentFrequency = "Quarterly"
	FrequencySemiAnnual       AssessmentFrequency = "Semi-annual"
	FrequencyYearly           AssessmentFrequency = "Yearly"
)

// FilterValue returns the raw API value for filter expressions.
func (f AssessmentFrequency) FilterValue() string { return string(f) }
