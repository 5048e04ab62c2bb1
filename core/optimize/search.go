package optimize

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// moveKind enumerates the neighborhood of the local search.
type moveKind int

const (
	moveReassign moveKind = iota // hand the slot to another person
	moveSwap                     // exchange the occupants of two slots
	moveFill                     // staff an uncovered required slot
	moveDrop                     // vacate a slot
)

type move struct {
	kind  moveKind
	slot  model.SlotKey
	other model.SlotKey
	pid   string
}

// target is a slot the search considers acting on, with the violation weight
// blamed on it.
type target struct {
	slot  model.SlotKey
	fill  bool
	blame float64
}

type targetKey struct {
	slot model.SlotKey
	fill bool
}

type searcher struct {
	req        Request
	rows       []model.ShiftRow
	rowsByID   map[string]model.ShiftRow
	pinned     map[model.SlotKey]bool
	candidates map[string][]string
	leaveDays  map[string]map[int]bool
	days       int
}

func newSearcher(req Request, rows []model.ShiftRow) *searcher {
	s := &searcher{
		req:        req,
		rows:       rows,
		rowsByID:   make(map[string]model.ShiftRow, len(rows)),
		pinned:     make(map[model.SlotKey]bool, len(req.Pins)),
		candidates: make(map[string][]string, len(rows)),
		leaveDays:  make(map[string]map[int]bool),
		days:       model.DaysIn(req.Year, req.Month),
	}
	for _, r := range rows {
		s.rowsByID[r.ID] = r
	}
	for _, p := range req.Pins {
		s.pinned[p.Slot()] = true
	}
	for _, r := range rows {
		var ids []string
		for _, p := range req.Staff {
			if req.RequireEligibility && !req.Rules.Personnel.Eligible(p, r.ID) {
				continue
			}
			ids = append(ids, p.ID)
		}
		sort.Strings(ids)
		s.candidates[r.ID] = ids
	}
	if s.hardLeave() {
		for pid, dates := range req.Leaves {
			for _, d := range dates {
				d = d.UTC()
				if d.Year() != req.Year || d.Month() != req.Month {
					continue
				}
				if s.leaveDays[pid] == nil {
					s.leaveDays[pid] = make(map[int]bool)
				}
				s.leaveDays[pid][d.Day()] = true
			}
		}
	}
	return s
}

func (s *searcher) hardLeave() bool {
	if s.req.LeavePolicy != "" {
		return s.req.LeavePolicy == rules.LeavePolicyHard
	}
	return s.req.Rules.Leave.Policy == rules.LeavePolicyHard
}

func (s *searcher) blocked(pid string, day int) bool {
	return s.leaveDays[pid][day]
}

func (s *searcher) eligible(pid, rowID string) bool {
	for _, c := range s.candidates[rowID] {
		if c == pid {
			return true
		}
	}
	return false
}

// search runs bounded hill-climbing with equal-score plateau acceptance. It
// returns the best schedule found, the iterations consumed, and whether the
// run was cut short by cancellation. The best schedule's score never exceeds
// the input schedule's.
func (o *Optimizer) search(ctx context.Context, req Request, sched model.Schedule, rows []model.ShiftRow, budget int) (model.Schedule, int, bool) {
	s := newSearcher(req, rows)

	cur := sched.Clone()
	curRep := evaluate(req, cur, rows)
	best := cur.Clone()
	bestScore := curRep.Score
	tabu := make(map[targetKey]bool)

	iter := 0
	for iter < budget && curRep.Score > 0 {
		select {
		case <-ctx.Done():
			return best, iter, true
		default:
		}

		chosen, ok := s.pickTarget(cur, curRep, tabu)
		if !ok {
			break
		}
		iter++

		m, score, found := s.bestMove(cur, curRep.Score, chosen, rows)
		if !found {
			tabu[targetKey{slot: chosen.slot, fill: chosen.fill}] = true
			continue
		}
		s.apply(&cur, m)
		improved := score < curRep.Score
		curRep = evaluate(req, cur, rows)
		if curRep.Score < bestScore {
			best = cur.Clone()
			bestScore = curRep.Score
			tabu = make(map[targetKey]bool)
		}
		if !improved {
			// Plateau step: keep walking but do not revisit this slot
			// until something actually improves.
			tabu[targetKey{slot: chosen.slot, fill: chosen.fill}] = true
		}
	}
	return best, iter, false
}

// pickTarget ranks slots by blamed violation weight and returns the worst
// non-tabu one. Uncovered required slots rank among the blamed assignments by
// the coverage weight.
func (s *searcher) pickTarget(cur model.Schedule, rep rules.Report, tabu map[targetKey]bool) (target, bool) {
	blame := make(map[targetKey]float64)
	byPerson := cur.ByPerson()
	for _, v := range rep.Violations {
		w := s.req.Rules.Weight(v.RuleID)
		if v.RuleID == rules.RuleCoverage {
			key := targetKey{slot: model.SlotKey{Day: v.FromDay, RowID: v.RowID}, fill: true}
			if !s.pinned[key.slot] {
				blame[key] += w
			}
			continue
		}
		if v.PersonID == "" {
			continue
		}
		for _, a := range byPerson[v.PersonID] {
			if a.Day < v.FromDay || a.Day > v.ToDay {
				continue
			}
			if v.RowID != "" && v.RowID != a.RowID {
				continue
			}
			if s.pinned[a.Slot()] {
				continue
			}
			blame[targetKey{slot: a.Slot()}] += w
		}
	}

	targets := make([]target, 0, len(blame))
	for key, b := range blame {
		targets = append(targets, target{slot: key.slot, fill: key.fill, blame: b})
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].blame != targets[j].blame {
			return targets[i].blame > targets[j].blame
		}
		if targets[i].slot.Day != targets[j].slot.Day {
			return targets[i].slot.Day < targets[j].slot.Day
		}
		return targets[i].slot.RowID < targets[j].slot.RowID
	})
	for _, t := range targets {
		if !tabu[targetKey{slot: t.slot, fill: t.fill}] {
			return t, true
		}
	}
	return target{}, false
}

// bestMove enumerates the neighborhood of the target and returns the
// candidate with the lowest score, requiring it not to exceed the current
// score. Equal scores are broken by hour balance, then by enumeration order,
// which is deterministic.
func (s *searcher) bestMove(cur model.Schedule, curScore float64, t target, rows []model.ShiftRow) (move, float64, bool) {
	var (
		bestM     move
		bestScore float64
		bestDev   float64
		found     bool
	)
	consider := func(m move) {
		trial := cur.Clone()
		s.apply(&trial, m)
		rep := evaluate(s.req, trial, rows)
		if rep.Score > curScore {
			return
		}
		dev := s.hoursDeviation(trial)
		if !found || rep.Score < bestScore || (rep.Score == bestScore && dev < bestDev) {
			bestM, bestScore, bestDev, found = m, rep.Score, dev, true
		}
	}

	if t.fill {
		for _, pid := range s.candidates[t.slot.RowID] {
			if s.blocked(pid, t.slot.Day) {
				continue
			}
			consider(move{kind: moveFill, slot: t.slot, pid: pid})
		}
		return bestM, bestScore, found
	}

	occupant, occupied := cur.At(t.slot.Day, t.slot.RowID)
	if !occupied {
		return move{}, 0, false
	}
	for _, pid := range s.candidates[t.slot.RowID] {
		if pid == occupant.PersonID || s.blocked(pid, t.slot.Day) {
			continue
		}
		consider(move{kind: moveReassign, slot: t.slot, pid: pid})
	}
	for _, other := range cur.Assignments {
		if other.Slot() == t.slot || s.pinned[other.Slot()] {
			continue
		}
		if !s.eligible(occupant.PersonID, other.RowID) || !s.eligible(other.PersonID, t.slot.RowID) {
			continue
		}
		if s.blocked(occupant.PersonID, other.Day) || s.blocked(other.PersonID, t.slot.Day) {
			continue
		}
		consider(move{kind: moveSwap, slot: t.slot, other: other.Slot()})
	}
	consider(move{kind: moveDrop, slot: t.slot})
	return bestM, bestScore, found
}

func (s *searcher) apply(sched *model.Schedule, m move) {
	switch m.kind {
	case moveReassign, moveFill:
		sched.Set(model.Assignment{Day: m.slot.Day, PersonID: m.pid, RowID: m.slot.RowID})
	case moveSwap:
		a, okA := sched.At(m.slot.Day, m.slot.RowID)
		b, okB := sched.At(m.other.Day, m.other.RowID)
		if !okA || !okB {
			return
		}
		a.PersonID, b.PersonID = b.PersonID, a.PersonID
		sched.Set(a)
		sched.Set(b)
	case moveDrop:
		sched.Remove(m.slot.Day, m.slot.RowID)
	}
}

// hoursDeviation measures how far the schedule strays from the target hour
// goal: the summed absolute deviation per person when a target is set, the
// standard deviation of per-person hours otherwise.
func (s *searcher) hoursDeviation(sched model.Schedule) float64 {
	totals := make(map[string]float64)
	for _, a := range sched.Assignments {
		if row, ok := s.rowsByID[a.RowID]; ok {
			totals[a.PersonID] += row.Hours()
		}
	}
	hours := make([]float64, 0, len(s.req.Staff))
	var sum float64
	for _, p := range s.req.Staff {
		h := totals[p.ID]
		hours = append(hours, h)
		if s.req.TargetHours > 0 {
			if h > s.req.TargetHours {
				sum += h - s.req.TargetHours
			} else {
				sum += s.req.TargetHours - h
			}
		}
	}
	if s.req.TargetHours > 0 {
		return sum
	}
	if len(hours) < 2 {
		return 0
	}
	return stat.StdDev(hours, nil)
}
