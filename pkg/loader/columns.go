package loader

// Column names shared by input files and exported rankings
const (
	ColID             = "ID"
	ColName           = "Name"
	ColRequestingArea = "RequestingArea"
	ColRevenueStream  = "RevenueStream"
	ColBudgetGroup    = "BudgetGroup"
	ColPriorityRA     = "PriorityRA"
	ColMicroPhase     = "MicroPhase"
	ColQueue          = "Queue"
	ColValue          = "Value"
	ColUrgency        = "Urgency"
	ColRisk           = "Risk"
	ColSize           = "Size"
	ColWeight         = "Weight"

	ColMethod        = "Method"
	ColStreamRank    = "Rank_RS"
	ColGlobalRank    = "GlobalRank"
	ColScore         = "WSJF_Score"
	ColAdjustedScore = "Adjusted_WSJF"
	ColFinalScore    = "Final_WSJF"
)

var (
	ideaColumns         = []string{ColID, ColName, ColRequestingArea, ColRevenueStream, ColBudgetGroup, ColPriorityRA}
	areaWeightColumns   = []string{ColRevenueStream, ColBudgetGroup, ColRequestingArea, ColWeight}
	streamWeightColumns = []string{ColRevenueStream, ColWeight}
	streamRankColumns   = []string{ColID, ColRequestingArea, ColRevenueStream, ColStreamRank}
)
