package gotreesitter

// Error-cost constants. Versions of the parse stack and finished trees are
// scored by accumulating these penalties; lower cost wins.
const (
	errorCostPerRecovery    = 500
	errorCostPerMissingTree = 110
	errorCostPerSkippedTree = 100
	errorCostPerSkippedLine = 2
	errorCostPerSkippedChar = 1

	// maxCostDifference is the cost gap beyond which a cheaper stack
	// version outright replaces a more expensive one instead of merely
	// being preferred.
	maxCostDifference = 16 * errorCostPerSkippedTree
)

// errorStatus summarizes one stack version for pruning decisions.
type errorStatus struct {
	cost              uint32
	nodeCount         uint32
	dynamicPrecedence int32
	isInError         bool
}

// errorComparison is the outcome of comparing two stack versions.
type errorComparison int

const (
	errorComparisonTakeLeft errorComparison = iota
	errorComparisonPreferLeft
	errorComparisonNone
	errorComparisonPreferRight
	errorComparisonTakeRight
)

// compareErrorStatus ranks two stack versions. "Take" outcomes remove the
// losing version outright; "Prefer" outcomes only bias merge order.
func compareErrorStatus(a, b errorStatus) errorComparison {
	if a.isInError && !b.isInError {
		if b.cost < a.cost {
			return errorComparisonTakeRight
		}
		return errorComparisonPreferRight
	}
	if b.isInError && !a.isInError {
		if a.cost < b.cost {
			return errorComparisonTakeLeft
		}
		return errorComparisonPreferLeft
	}

	if a.cost < b.cost {
		if (b.cost-a.cost)*(1+a.nodeCount) > maxCostDifference {
			return errorComparisonTakeLeft
		}
		return errorComparisonPreferLeft
	}
	if b.cost < a.cost {
		if (a.cost-b.cost)*(1+b.nodeCount) > maxCostDifference {
			return errorComparisonTakeRight
		}
		return errorComparisonPreferRight
	}

	if a.dynamicPrecedence > b.dynamicPrecedence {
		return errorComparisonPreferLeft
	}
	if b.dynamicPrecedence > a.dynamicPrecedence {
		return errorComparisonPreferRight
	}
	return errorComparisonNone
}
