package status

import "testing"

func TestAvailableFrom_Terminee(t *testing.T) {
	got := AvailableFrom(Terminee)

	targets := map[Code]bool{}
	for _, tr := range got {
		targets[tr.To] = true
	}
	if !targets[Archivee] {
		t.Fatalf("terminee should allow archivée, got %v", got)
	}
	if !targets[EnCours] {
		t.Fatalf("terminee should allow en_cours, got %v", got)
	}
	if targets[Nouvelle] {
		t.Fatalf("terminee must not allow nouvelle")
	}
}

func TestAvailableFrom_UnknownCodeIsEmpty(t *testing.T) {
	if got := AvailableFrom("inexistant"); len(got) != 0 {
		t.Fatalf("expected no transitions for unknown code, got %v", got)
	}
}

func TestAbsentEdge(t *testing.T) {
	cases := []struct{ from, to Code }{
		{Nouvelle, Terminee},
		{Terminee, Nouvelle},
		{Supprimee, Nouvelle},
		{EnCours, Acceptee},
		{"inexistant", Nouvelle},
	}
	for _, c := range cases {
		if Allowed(c.from, c.to) {
			t.Fatalf("%s -> %s should not be allowed", c.from, c.to)
		}
		if req := RequirementsFor(c.from, c.to); req != nil {
			t.Fatalf("%s -> %s should have nil requirements, got %+v", c.from, c.to, req)
		}
	}
}

func TestForwardEdgesHaveNoRequirements(t *testing.T) {
	forward := []struct{ from, to Code }{
		{Acceptee, Confirmee},
		{Confirmee, EnCours},
		{EnCours, Terminee},
		{Terminee, Archivee},
	}
	for _, c := range forward {
		req := RequirementsFor(c.from, c.to)
		if req == nil {
			t.Fatalf("%s -> %s should exist", c.from, c.to)
		}
		if req.RequiresAdminApproval || req.RequiresNotes {
			t.Fatalf("%s -> %s should require neither approval nor notes, got %+v", c.from, c.to, req)
		}
	}
}

func TestBackwardEdgesRequireApprovalAndNotes(t *testing.T) {
	backward := []struct{ from, to Code }{
		{Nouvelle, Annulee},
		{Acceptee, Annulee},
		{Confirmee, Annulee},
		{EnCours, Annulee},
		{Acceptee, Nouvelle},
		{Annulee, Nouvelle},
		{Confirmee, Acceptee},
		{Terminee, EnCours},
		{Archivee, Supprimee},
	}
	for _, c := range backward {
		req := RequirementsFor(c.from, c.to)
		if req == nil {
			t.Fatalf("%s -> %s should exist", c.from, c.to)
		}
		if !req.RequiresAdminApproval || !req.RequiresNotes {
			t.Fatalf("%s -> %s should require approval and notes, got %+v", c.from, c.to, req)
		}
	}
}

func TestEveryEdgeReferencesCatalogCodes(t *testing.T) {
	for _, tr := range transitionTable {
		if _, ok := ByCode(tr.From); !ok {
			t.Fatalf("edge %s -> %s: from not in catalog", tr.From, tr.To)
		}
		if _, ok := ByCode(tr.To); !ok {
			t.Fatalf("edge %s -> %s: to not in catalog", tr.From, tr.To)
		}
	}
}

func TestActionsFor(t *testing.T) {
	actions := ActionsFor(Acceptee, Confirmee)
	if len(actions) != 1 || actions[0] != ActionSendConfirmationEmail {
		t.Fatalf("acceptee -> confirmee should send confirmation email, got %v", actions)
	}
	if got := ActionsFor(Terminee, Archivee); len(got) != 0 {
		t.Fatalf("terminee -> archivée should have no actions, got %v", got)
	}
}
