package status

// AutoAction identifies a side effect the booking service runs after a
// transition commits. Actions are best-effort; they never roll back the
// transition itself.
type AutoAction string

const (
	ActionSendConfirmationEmail AutoAction = "send_confirmation_email"
	ActionSendCancellationEmail AutoAction = "send_cancellation_email"
	ActionRecalculatePrice      AutoAction = "recalculate_price"
)

// Requirements is the policy attached to a transition edge.
type Requirements struct {
	RequiresAdminApproval bool `json:"requiresAdminApproval"`
	RequiresNotes         bool `json:"requiresNotes"`
}

// Transition is a single allowed edge in the booking lifecycle. Absence of an
// edge means the transition is illegal.
type Transition struct {
	From Code
	To   Code
	Requirements
	AutoActions []AutoAction
}

// transitionTable is the single source of truth for legal transitions.
// Forward progress edges carry no requirements; backward, cancellation and
// deletion edges require admin approval and notes.
var transitionTable = []Transition{
	// nouvelle
	{From: Nouvelle, To: Acceptee, AutoActions: []AutoAction{ActionRecalculatePrice}},
	{From: Nouvelle, To: Annulee, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}, AutoActions: []AutoAction{ActionSendCancellationEmail}},

	// acceptee
	{From: Acceptee, To: Confirmee, AutoActions: []AutoAction{ActionSendConfirmationEmail}},
	{From: Acceptee, To: Annulee, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}, AutoActions: []AutoAction{ActionSendCancellationEmail}},
	{From: Acceptee, To: Nouvelle, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}},

	// confirmee
	{From: Confirmee, To: EnCours},
	{From: Confirmee, To: Annulee, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}, AutoActions: []AutoAction{ActionSendCancellationEmail}},
	{From: Confirmee, To: Acceptee, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}},

	// en_cours
	{From: EnCours, To: Terminee},
	{From: EnCours, To: Annulee, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}, AutoActions: []AutoAction{ActionSendCancellationEmail}},

	// terminee
	{From: Terminee, To: Archivee},
	{From: Terminee, To: EnCours, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}},

	// annulee
	{From: Annulee, To: Nouvelle, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}},
	{From: Annulee, To: Archivee},

	// archivée
	{From: Archivee, To: Terminee},
	{From: Archivee, To: Supprimee, Requirements: Requirements{RequiresAdminApproval: true, RequiresNotes: true}},

	// supprimee: restoration path only
	{From: Supprimee, To: Archivee},
}

// AvailableFrom returns every outgoing edge of from, in table order. The
// result is empty for terminal or unrecognized codes.
func AvailableFrom(from Code) []Transition {
	var out []Transition
	for _, t := range transitionTable {
		if t.From == from {
			out = append(out, t)
		}
	}
	return out
}

func Allowed(from, to Code) bool {
	for _, t := range transitionTable {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// RequirementsFor returns the policy of the (from, to) edge, or nil when the
// edge does not exist.
func RequirementsFor(from, to Code) *Requirements {
	for _, t := range transitionTable {
		if t.From == from && t.To == to {
			req := t.Requirements
			return &req
		}
	}
	return nil
}

// ActionsFor returns the ordered side effects of the (from, to) edge.
func ActionsFor(from, to Code) []AutoAction {
	for _, t := range transitionTable {
		if t.From == from && t.To == to {
			return t.AutoActions
		}
	}
	return nil
}
