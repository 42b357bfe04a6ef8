package entitlement

import "time"

// Plan は購入可能なサブスクリプションプラン。
type Plan struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Months     int      `json:"months"`
	TotalPrice int      `json:"total_price"`
	PerMonth   int      `json:"per_month"`
	Currency   string   `json:"currency"`
	Features   []string `json:"features"`
}

// ExpiresFrom は start から購入した場合の有効期限を返す。
func (p Plan) ExpiresFrom(start time.Time) time.Time {
	return start.AddDate(0, p.Months, 0)
}

var plans = []Plan{
	{
		ID:         "starter",
		Title:      "Starter",
		Months:     1,
		TotalPrice: 249,
		PerMonth:   249,
		Currency:   "INR",
		Features: []string{
			"Early notifications to verified job openings",
			"Ideal for trying the platform",
		},
	},
	{
		ID:         "popular",
		Title:      "Popular",
		Months:     3,
		TotalPrice: 597,
		PerMonth:   199,
		Currency:   "INR",
		Features: []string{
			"Early notifications to verified job openings",
			"Get full refund if you get job in the time period",
		},
	},
	{
		ID:         "best_value",
		Title:      "Best Value",
		Months:     6,
		TotalPrice: 1014,
		PerMonth:   169,
		Currency:   "INR",
		Features: []string{
			"Early notifications to verified job openings",
			"Get full refund if you get job in the time period",
			"Free mock interview if user receives an interview call from a top MNC",
		},
	},
}

// Plans は購入可能なプランの一覧を返す。
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// LookupPlan はIDに対応するプランを返す。
func LookupPlan(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
