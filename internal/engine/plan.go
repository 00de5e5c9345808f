package engine

import "github.com/conorfennell/nibras/internal/progress"

// Plan is a freshly created study plan.
type Plan struct {
	IDs    []int
	Days   int
	PerDay float64
}

// CreateStudyPlan stores a shuffled plan over every record to be finished
// in days.
func (e *Engine) CreateStudyPlan(learnerID int64, days int) (Plan, error) {
	if days < 1 {
		return Plan{}, ErrInvalidPlan
	}
	ids := e.index.IDs()
	if len(ids) == 0 {
		return Plan{}, ErrNoData
	}

	e.rngMu.Lock()
	e.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	e.rngMu.Unlock()

	e.store.SetStudyPlan(learnerID, ids)
	return Plan{
		IDs:    ids,
		Days:   days,
		PerDay: progress.Round(float64(len(ids))/float64(days), 1),
	}, nil
}

// PlanProgress summarises how far the learner is through their plan.
type PlanProgress struct {
	Total      int
	Completed  int
	Remaining  int
	Percentage float64
	Next       []int
}

// PlanProgress reports progress through the stored plan. ok is false when
// the learner has no plan.
func (e *Engine) PlanProgress(learnerID int64) (PlanProgress, bool) {
	p := e.store.Load(learnerID)
	if len(p.StudyPlan) == 0 {
		return PlanProgress{}, false
	}

	pp := PlanProgress{Total: len(p.StudyPlan)}
	for _, id := range p.StudyPlan {
		if p.HasRead(id) {
			pp.Completed++
		} else if len(pp.Next) < 3 {
			pp.Next = append(pp.Next, id)
		}
	}
	pp.Remaining = pp.Total - pp.Completed
	pp.Percentage = progress.Round(float64(pp.Completed)/float64(pp.Total)*100, 1)
	return pp, true
}

// ResetStudyPlan clears the learner's plan.
func (e *Engine) ResetStudyPlan(learnerID int64) bool {
	return e.store.SetStudyPlan(learnerID, nil)
}
