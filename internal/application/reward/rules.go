package reward

import "github.com/eloity/tiergate/internal/domain"

// rewardRules is the closed earning table. An action type absent from
// this map earns nothing.
var rewardRules = map[string]domain.RewardRule{
	"post_content":  {ActionType: "post_content", BasePoints: 10, DailyLimit: 5},
	"like_post":     {ActionType: "like_post", BasePoints: 0.5, DailyLimit: 50},
	"comment_post":  {ActionType: "comment_post", BasePoints: 2, DailyLimit: 20},
	"share_content": {ActionType: "share_content", BasePoints: 3, DailyLimit: 10},
	"daily_login":   {ActionType: "daily_login", BasePoints: 5, DailyLimit: 1},
	"complete_sale": {ActionType: "complete_sale", BasePoints: 50, MinimumTrustScore: 20},
	"refer_user":    {ActionType: "refer_user", BasePoints: 100, MinimumTrustScore: 30},
}

// spamThresholds is the per-action hourly ceiling used by the pre-award
// spam gate. Actions not listed use defaultSpamThreshold.
var spamThresholds = map[string]int{
	"like_post":     30,
	"comment_post":  20,
	"share_content": 10,
	"post_content":  5,
}

const defaultSpamThreshold = 10

// spamTrustPenalty is the trust-score hit applied on a spam verdict.
const spamTrustPenalty = -2
