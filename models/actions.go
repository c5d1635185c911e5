package models

import (
	"encoding/json"

	"github.com/talentwire/points-service/utils"
)

type BillableAction string

const (
	ActionAIConversation    BillableAction = "ai_conversation"
	ActionMessageSend       BillableAction = "message_send"
	ActionContactDisclosure BillableAction = "contact_disclosure"
	ActionProfileView       BillableAction = "profile_view"
)

// CostTable maps billable actions to their point cost. Costs are static per
// deployment; overrides come from configuration, never from the database.
type CostTable struct {
	costs map[BillableAction]int64
}

func DefaultCostTable() *CostTable {
	return &CostTable{
		costs: map[BillableAction]int64{
			ActionAIConversation:    1,
			ActionMessageSend:       3,
			ActionContactDisclosure: 10,
			ActionProfileView:       0,
		},
	}
}

// NewCostTableFromEnv merges a JSON object of action -> cost overrides on
// top of the defaults. An empty string returns the defaults unchanged.
func NewCostTableFromEnv(raw string) utils.Result[*CostTable] {
	table := DefaultCostTable()
	if raw == "" {
		return utils.SuccessResult(table)
	}

	overrides := map[BillableAction]int64{}
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return utils.FailedResult[*CostTable](err)
	}

	for action, cost := range overrides {
		table.costs[action] = cost
	}

	return utils.SuccessResult(table)
}

func (t *CostTable) Cost(action BillableAction) (int64, bool) {
	cost, ok := t.costs[action]
	return cost, ok
}
