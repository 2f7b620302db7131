package domain

import "time"

// Plan describes a purchasable access window. MaxSongs of 0 means the plan is
// unlimited; individual jobs are still bounded by PracticalJobLimit.
type Plan struct {
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	Price    float64       `json:"price"`
	Duration time.Duration `json:"duration"`
	MaxSongs int           `json:"max_songs"`
}

// PracticalJobLimit bounds a single job even for unlimited plans.
const PracticalJobLimit = 500

const (
	PlanQuick = "quick"
	PlanPro   = "pro"
)

// Plans returns the pricing catalog in display order.
func Plans() []Plan {
	return []Plan{
		{
			Type:     PlanQuick,
			Name:     "Quick Download",
			Price:    4.99,
			Duration: 10 * time.Minute,
			MaxSongs: 500,
		},
		{
			Type:     PlanPro,
			Name:     "Pro Access",
			Price:    49.99,
			Duration: 72 * time.Hour,
			MaxSongs: 0,
		},
	}
}

// PlanByType looks up a plan by its type identifier.
func PlanByType(planType string) (Plan, bool) {
	for _, p := range Plans() {
		if p.Type == planType {
			return p, true
		}
	}
	return Plan{}, false
}
