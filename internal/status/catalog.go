package status

import "fmt"

// Code is the stable identifier of a booking status. Codes are referenced by
// booking records and transition rules and never change once seeded.
type Code string

const (
	Nouvelle  Code = "nouvelle"
	Acceptee  Code = "acceptee"
	Confirmee Code = "confirmee"
	EnCours   Code = "en_cours"
	Terminee  Code = "terminee"
	Annulee   Code = "annulee"
	Archivee  Code = "archivée"
	Supprimee Code = "supprimee"
)

func (c Code) String() string {
	return string(c)
}

func ParseCode(s string) (Code, error) {
	switch Code(s) {
	case Nouvelle, Acceptee, Confirmee, EnCours, Terminee, Annulee, Archivee, Supprimee:
		return Code(s), nil
	default:
		return "", fmt.Errorf("unknown booking status: %s", s)
	}
}

// Status carries the display metadata the dashboard and kanban board render.
type Status struct {
	Code        Code   `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}

// catalog is the single source of truth for the 8 lifecycle statuses.
// Order follows SortOrder, the canonical left-to-right kanban position.
var catalog = []Status{
	{Code: Nouvelle, Name: "Nouvelle", Description: "Demande reçue, en attente de traitement", Color: "#2196f3", Icon: "inbox", SortOrder: 1, IsActive: true},
	{Code: Acceptee, Name: "Acceptée", Description: "Demande acceptée par l'administrateur", Color: "#00bcd4", Icon: "thumb-up", SortOrder: 2, IsActive: true},
	{Code: Confirmee, Name: "Confirmée", Description: "Réservation confirmée avec la famille", Color: "#4caf50", Icon: "calendar-check", SortOrder: 3, IsActive: true},
	{Code: EnCours, Name: "En cours", Description: "Garde en cours d'exécution", Color: "#ff9800", Icon: "progress-clock", SortOrder: 4, IsActive: true},
	{Code: Terminee, Name: "Terminée", Description: "Garde terminée", Color: "#8bc34a", Icon: "check-circle", SortOrder: 5, IsActive: true},
	{Code: Annulee, Name: "Annulée", Description: "Demande annulée", Color: "#f44336", Icon: "cancel", SortOrder: 6, IsActive: true},
	{Code: Archivee, Name: "Archivée", Description: "Réservation archivée", Color: "#9e9e9e", Icon: "archive", SortOrder: 7, IsActive: true},
	{Code: Supprimee, Name: "Supprimée", Description: "Réservation placée dans la corbeille", Color: "#607d8b", Icon: "delete", SortOrder: 8, IsActive: false},
}

// unknown is the fallback presentation for codes not in the catalog.
// Lookup helpers never fail; the dashboard must always have something to draw.
var unknown = Status{
	Code:        "",
	Name:        "Inconnu",
	Description: "Statut inconnu",
	Color:       "#bdbdbd",
	Icon:        "help-circle",
}

func ByCode(code Code) (Status, bool) {
	for _, s := range catalog {
		if s.Code == code {
			return s, true
		}
	}
	return Status{}, false
}

func Name(code Code) string {
	if s, ok := ByCode(code); ok {
		return s.Name
	}
	return unknown.Name
}

func Color(code Code) string {
	if s, ok := ByCode(code); ok {
		return s.Color
	}
	return unknown.Color
}

func Icon(code Code) string {
	if s, ok := ByCode(code); ok {
		return s.Icon
	}
	return unknown.Icon
}

func Description(code Code) string {
	if s, ok := ByCode(code); ok {
		return s.Description
	}
	return unknown.Description
}

// Active returns the selectable statuses ordered by SortOrder ascending.
func Active() []Status {
	out := make([]Status, 0, len(catalog))
	for _, s := range catalog {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// All returns every catalog entry, including inactive ones, ordered by SortOrder.
func All() []Status {
	out := make([]Status, len(catalog))
	copy(out, catalog)
	return out
}
