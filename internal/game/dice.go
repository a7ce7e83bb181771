package game

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// Roll purposes with dedicated interpretation rules.
const (
	PurposeStatCheck = "stat_check"
	PurposeAttack    = "attack"
	PurposeHauntRoll = "haunt_roll"
	PurposeEvent     = "event"
)

// DefaultHistoryLimit is the number of rolls returned when no limit is given.
const DefaultHistoryLimit = 10

// pendingRolls returns the outstanding rolls in request order.
func pendingRolls(d *Document) []PendingRoll {
	out := slices.Collect(maps.Values(d.TurnState.PendingRolls))
	slices.SortFunc(out, func(a, b PendingRoll) int { return cmp.Compare(a.Seq, b.Seq) })
	if out == nil {
		out = []PendingRoll{}
	}
	return out
}

func pendingRollIDs(d *Document) []string {
	rolls := pendingRolls(d)
	ids := make([]string, len(rolls))
	for i, r := range rolls {
		ids[i] = r.RollID
	}
	return ids
}

// ── Request ──────────────────────────────────────────────────────────────────

// RollRequest carries the optional parameters of [Engine.RequestRoll].
// Zero values mean "not given".
type RollRequest struct {
	Purpose   string
	Stat      string
	DiceCount int
	Target    *int
}

// RollPrompt is returned by [Engine.RequestRoll].
type RollPrompt struct {
	RollID      string `json:"rollId"`
	DiceCount   int    `json:"diceCount"`
	Purpose     string `json:"purpose"`
	Stat        string `json:"stat,omitempty"`
	StatValue   *int   `json:"statValue,omitempty"`
	Target      *int   `json:"target,omitempty"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

// RequestRoll asks the human to roll dice. The dice count is the explicit
// override when positive, else the AI's current value for the named stat
// when positive, else one die.
func (e *Engine) RequestRoll(d *Document, req RollRequest) (RollPrompt, error) {
	ai, err := requireAI(d)
	if err != nil {
		return RollPrompt{}, err
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		return RollPrompt{}, invalid("purpose is required")
	}
	stat := strings.ToLower(strings.TrimSpace(req.Stat))

	var statValue *int
	if stat != "" {
		if !slices.Contains(catalog.Traits, stat) {
			return RollPrompt{}, invalid("Unknown stat: %s", req.Stat).With("validStats", catalog.Traits)
		}
		if s, ok := ai.Stats[stat]; ok {
			v := s.CurrentValue
			statValue = &v
		}
	}

	dice := 1
	switch {
	case req.DiceCount > 0:
		dice = req.DiceCount
	case statValue != nil && *statValue > 0:
		dice = *statValue
	}

	if d.TurnState.PendingRolls == nil {
		d.TurnState.PendingRolls = make(map[string]PendingRoll)
	}
	id := e.uniqueID("", func(id string) bool { _, taken := d.TurnState.PendingRolls[id]; return taken })
	d.TurnState.RollSeq++
	roll := PendingRoll{
		RollID:      id,
		Purpose:     purpose,
		Stat:        stat,
		StatValue:   statValue,
		DiceCount:   dice,
		Target:      req.Target,
		Status:      StatusPending,
		RequestedAt: e.timestamp(),
		Seq:         d.TurnState.RollSeq,
	}
	d.TurnState.PendingRolls[id] = roll

	return RollPrompt{
		RollID:      id,
		DiceCount:   dice,
		Purpose:     purpose,
		Stat:        stat,
		StatValue:   statValue,
		Target:      req.Target,
		Description: rollDescription(roll),
		Message:     fmt.Sprintf("Please roll %d dice and report the result using 'record_dice_result'", dice),
	}, nil
}

// rollDescription renders "Roll N dice for Stat (purpose) - need T+".
func rollDescription(r PendingRoll) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Roll %d dice", r.DiceCount)
	if r.Stat != "" {
		b.WriteString(" for " + strings.ToUpper(r.Stat[:1]) + r.Stat[1:])
	}
	if r.Purpose != "" {
		b.WriteString(" (" + r.Purpose + ")")
	}
	if r.Target != nil {
		fmt.Fprintf(&b, " - need %d+", *r.Target)
	}
	return b.String()
}

// ── Resolve ──────────────────────────────────────────────────────────────────

// RollOutcome is returned by [Engine.RecordResult].
type RollOutcome struct {
	RollID                string `json:"rollId"`
	Result                int    `json:"result"`
	Purpose               string `json:"purpose"`
	Stat                  string `json:"stat,omitempty"`
	DiceCount             int    `json:"diceCount"`
	Target                *int   `json:"target,omitempty"`
	Success               *bool  `json:"success,omitempty"`
	RemainingPendingRolls int    `json:"remainingPendingRolls"`
	Message               string `json:"message"`
}

// RecordResult resolves a pending roll with the total the human rolled. The
// roll is removed before the result is logged, so replaying an id fails as
// not found.
func (e *Engine) RecordResult(d *Document, rollID string, result int) (RollOutcome, error) {
	ai, err := requireAI(d)
	if err != nil {
		return RollOutcome{}, err
	}
	if result < 0 {
		return RollOutcome{}, invalid("result must not be negative")
	}
	roll, ok := d.TurnState.PendingRolls[rollID]
	if !ok || roll.Status != StatusPending {
		return RollOutcome{}, notFound("Roll request not found: %s", rollID).
			With("pendingRolls", pendingRollIDs(d))
	}
	delete(d.TurnState.PendingRolls, rollID)

	var success *bool
	if roll.Target != nil {
		s := result >= *roll.Target
		success = &s
	}

	details := map[string]any{
		"rollId":    roll.RollID,
		"purpose":   roll.Purpose,
		"stat":      roll.Stat,
		"statValue": roll.StatValue,
		"diceCount": roll.DiceCount,
		"result":    result,
		"target":    roll.Target,
	}
	if success != nil {
		details["success"] = *success
	}
	e.logAction(d, ai.ID, "dice_roll", details)
	noteAction(d, "dice_roll")

	out := RollOutcome{
		RollID:                roll.RollID,
		Result:                result,
		Purpose:               roll.Purpose,
		Stat:                  roll.Stat,
		DiceCount:             roll.DiceCount,
		Target:                roll.Target,
		Success:               success,
		RemainingPendingRolls: len(d.TurnState.PendingRolls),
		Message:               fmt.Sprintf("Rolled %d", result),
	}
	if success != nil {
		verdict := "FAIL"
		if *success {
			verdict = "SUCCESS"
		}
		out.Message = fmt.Sprintf("Rolled %d vs target %d: %s", result, *roll.Target, verdict)
	}
	return out, nil
}

// CancelRollResult is returned by [Engine.CancelRoll].
type CancelRollResult struct {
	CancelledRollID       string `json:"cancelledRollId"`
	RemainingPendingRolls int    `json:"remainingPendingRolls"`
}

// CancelRoll withdraws a pending roll without logging a result.
func (e *Engine) CancelRoll(d *Document, rollID string) (CancelRollResult, error) {
	if _, ok := d.TurnState.PendingRolls[rollID]; !ok {
		return CancelRollResult{}, notFound("Roll request not found: %s", rollID).
			With("pendingRolls", pendingRollIDs(d))
	}
	delete(d.TurnState.PendingRolls, rollID)
	return CancelRollResult{
		CancelledRollID:       rollID,
		RemainingPendingRolls: len(d.TurnState.PendingRolls),
	}, nil
}

// PendingRollsView is returned by [Engine.PendingRolls].
type PendingRollsView struct {
	HasPendingRolls bool          `json:"hasPendingRolls"`
	Count           int           `json:"count"`
	PendingRolls    []PendingRoll `json:"pendingRolls"`
	Message         string        `json:"message"`
}

// PendingRolls lists outstanding rolls in request order.
func (e *Engine) PendingRolls(d *Document) PendingRollsView {
	rolls := pendingRolls(d)
	out := PendingRollsView{
		HasPendingRolls: len(rolls) > 0,
		Count:           len(rolls),
		PendingRolls:    rolls,
		Message:         "No pending dice rolls",
	}
	if len(rolls) > 0 {
		out.Message = fmt.Sprintf("%d dice roll(s) pending", len(rolls))
	}
	return out
}

// ── Requirements ─────────────────────────────────────────────────────────────

// Requirement is one reason a roll or card draw may be needed in a room.
type Requirement struct {
	Source      string              `json:"source"`
	RoomID      string              `json:"roomId"`
	RoomName    string              `json:"roomName"`
	Stat        string              `json:"stat,omitempty"`
	TokenTypes  []catalog.TokenType `json:"tokenTypes,omitempty"`
	Description string              `json:"description"`
}

// RollRequirements is returned by [Engine.RollRequirements].
type RollRequirements struct {
	HasRequirements bool          `json:"hasRequirements"`
	Requirements    []Requirement `json:"requirements"`
	Count           int           `json:"count"`
}

// RollRequirements scans a room's printed text for trait rolls and reports
// any token that still has to be drawn.
func (e *Engine) RollRequirements(d *Document, roomID string) (RollRequirements, error) {
	r, err := resolveRoom(d, roomID)
	if err != nil {
		return RollRequirements{}, err
	}
	reqs := []Requirement{}
	if tpl, ok := e.catalog.Room(r.RoomName); ok && tpl.Text != "" {
		lower := strings.ToLower(tpl.Text)
		for _, stat := range catalog.Traits {
			if strings.Contains(lower, stat) {
				reqs = append(reqs, Requirement{
					Source:      "room",
					RoomID:      r.InstanceID,
					RoomName:    r.RoomName,
					Stat:        stat,
					Description: tpl.Text,
				})
			}
		}
	}
	if r.HasUncollectedToken() {
		reqs = append(reqs, Requirement{
			Source:      "token",
			RoomID:      r.InstanceID,
			RoomName:    r.RoomName,
			TokenTypes:  slices.Clone(r.Tokens),
			Description: fmt.Sprintf("Draw %s card(s)", strings.Join(tokenStrings(r.Tokens), ", ")),
		})
	}
	return RollRequirements{HasRequirements: len(reqs) > 0, Requirements: reqs, Count: len(reqs)}, nil
}

// ── Interpretation ───────────────────────────────────────────────────────────

// InterpretRequest carries the inputs of [Engine.InterpretResult].
type InterpretRequest struct {
	RollID  string
	Result  *int
	Purpose string
	Context string
}

// Interpretation is returned by [Engine.InterpretResult].
type Interpretation struct {
	RollID    string `json:"rollId,omitempty"`
	Result    int    `json:"result"`
	Purpose   string `json:"purpose,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	Damage    *int   `json:"damage,omitempty"`
	StatValue *int   `json:"statValue,omitempty"`
	Target    *int   `json:"target,omitempty"`
	Context   string `json:"context,omitempty"`
	Message   string `json:"message"`
}

type rollFacts struct {
	purpose   string
	statValue *int
	target    *int
	result    *int
}

// lookupRollFacts finds a roll by id among pending rolls first, then in the
// dice-roll history.
func lookupRollFacts(d *Document, rollID string) (rollFacts, bool) {
	if r, ok := d.TurnState.PendingRolls[rollID]; ok {
		return rollFacts{purpose: r.Purpose, statValue: r.StatValue, target: r.Target}, true
	}
	for i := len(d.ActionLog) - 1; i >= 0; i-- {
		entry := d.ActionLog[i]
		if entry.Action != "dice_roll" || fmt.Sprint(entry.Details["rollId"]) != rollID {
			continue
		}
		f := rollFacts{purpose: fmt.Sprint(entry.Details["purpose"])}
		f.statValue = intDetail(entry.Details["statValue"])
		f.target = intDetail(entry.Details["target"])
		f.result = intDetail(entry.Details["result"])
		return f, true
	}
	return rollFacts{}, false
}

// intDetail reads an integer out of a log detail. Values read back from JSON
// arrive as float64.
func intDetail(v any) *int {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case *int:
		if x == nil {
			return nil
		}
		n = *x
	case float64:
		n = int(x)
	case int64:
		n = int(x)
	default:
		return nil
	}
	return &n
}

// InterpretResult classifies a roll according to its purpose. It is advisory
// and never changes the document.
func (e *Engine) InterpretResult(d *Document, req InterpretRequest) (Interpretation, error) {
	var facts rollFacts
	if req.RollID != "" {
		f, ok := lookupRollFacts(d, req.RollID)
		if !ok && req.Result == nil {
			return Interpretation{}, notFound("Roll not found: %s", req.RollID).
				With("pendingRolls", pendingRollIDs(d))
		}
		facts = f
	}
	result := req.Result
	if result == nil {
		result = facts.result
	}
	if result == nil {
		return Interpretation{}, invalid("No result provided and roll not found in log")
	}
	purpose := facts.purpose
	if req.Purpose != "" {
		purpose = req.Purpose
	}
	if purpose == "" {
		purpose = req.Context
	}

	r := *result
	out := Interpretation{
		RollID:    req.RollID,
		Result:    r,
		Purpose:   purpose,
		StatValue: facts.statValue,
		Target:    facts.target,
		Context:   req.Context,
	}
	switch purpose {
	case PurposeStatCheck:
		if facts.statValue == nil {
			out.Message = fmt.Sprintf("Rolled %d (no stat value recorded)", r)
			break
		}
		need := *facts.statValue
		if r >= need {
			out.Outcome = "success"
			out.Message = fmt.Sprintf("Success! Rolled %d (needed %d)", r, need)
		} else {
			out.Outcome = "failure"
			out.Message = fmt.Sprintf("Failed. Rolled %d (needed %d)", r, need)
		}
		out.Success = boolPtr(r >= need)
	case PurposeAttack:
		if facts.target == nil {
			out.Message = fmt.Sprintf("Rolled %d (no target recorded)", r)
			break
		}
		t := *facts.target
		if r >= t {
			dmg := r - t
			out.Outcome = "hit"
			out.Damage = &dmg
			out.Message = fmt.Sprintf("Hit! %d damage dealt", dmg)
		} else {
			out.Outcome = "miss"
			out.Message = fmt.Sprintf("Miss! Rolled %d, needed %d", r, t)
		}
		out.Success = boolPtr(r >= t)
	case PurposeHauntRoll:
		omens := d.TokenDecks.OmensRevealed
		if r < omens {
			out.Outcome = "haunt_triggered"
			out.Message = fmt.Sprintf("HAUNT! Rolled %d, only %d omens revealed", r, omens)
		} else {
			out.Outcome = "safe"
			out.Message = fmt.Sprintf("Safe! Rolled %d vs %d omens", r, omens)
		}
	case PurposeEvent:
		switch {
		case r >= 4:
			out.Outcome = "good"
			out.Message = fmt.Sprintf("Good outcome (rolled %d)", r)
		case r >= 2:
			out.Outcome = "neutral"
			out.Message = fmt.Sprintf("Neutral outcome (rolled %d)", r)
		default:
			out.Outcome = "bad"
			out.Message = fmt.Sprintf("Bad outcome (rolled %d)", r)
		}
	default:
		if facts.target != nil {
			t := *facts.target
			out.Success = boolPtr(r >= t)
			verdict := "FAIL"
			if r >= t {
				verdict = "SUCCESS"
			}
			out.Message = fmt.Sprintf("Rolled %d vs target %d: %s", r, t, verdict)
		} else {
			out.Message = fmt.Sprintf("Rolled %d", r)
		}
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }

// ── History ──────────────────────────────────────────────────────────────────

// RollHistory is returned by [Engine.RollHistory].
type RollHistory struct {
	Rolls      []ActionLogEntry `json:"rolls"`
	Count      int              `json:"count"`
	TotalRolls int              `json:"totalRolls"`
}

// RollHistory returns the most recent dice_roll log entries, oldest first.
// A non-positive limit selects [DefaultHistoryLimit].
func (e *Engine) RollHistory(d *Document, limit int) RollHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rolls []ActionLogEntry
	for _, entry := range d.ActionLog {
		if entry.Action == "dice_roll" {
			rolls = append(rolls, entry)
		}
	}
	total := len(rolls)
	if total > limit {
		rolls = rolls[total-limit:]
	}
	if rolls == nil {
		rolls = []ActionLogEntry{}
	}
	return RollHistory{Rolls: rolls, Count: len(rolls), TotalRolls: total}
}
