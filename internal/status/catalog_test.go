package status

import "testing"

func TestByCode(t *testing.T) {
	s, ok := ByCode(Nouvelle)
	if !ok {
		t.Fatalf("nouvelle should be in the catalog")
	}
	if s.Name != "Nouvelle" || s.SortOrder != 1 {
		t.Fatalf("unexpected catalog entry: %+v", s)
	}

	if _, ok := ByCode("inexistant"); ok {
		t.Fatalf("unknown code should not resolve")
	}
}

func TestLookupFallbacks(t *testing.T) {
	if got := Name("inexistant"); got != "Inconnu" {
		t.Fatalf("expected fallback name, got %q", got)
	}
	if got := Color("inexistant"); got != "#bdbdbd" {
		t.Fatalf("expected fallback color, got %q", got)
	}
	if got := Icon("inexistant"); got != "help-circle" {
		t.Fatalf("expected fallback icon, got %q", got)
	}
	if got := Description("inexistant"); got == "" {
		t.Fatalf("expected fallback description")
	}
}

func TestActiveOrderedBySortOrder(t *testing.T) {
	active := Active()
	if len(active) != 7 {
		t.Fatalf("expected 7 active statuses, got %d", len(active))
	}
	for i := 1; i < len(active); i++ {
		if active[i-1].SortOrder > active[i].SortOrder {
			t.Fatalf("active statuses not ordered: %v", active)
		}
	}
	for _, s := range active {
		if s.Code == Supprimee {
			t.Fatalf("supprimee is not selectable and must not be listed active")
		}
	}
}

func TestParseCode(t *testing.T) {
	if _, err := ParseCode("en_cours"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseCode("archivée"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseCode("bogus"); err == nil {
		t.Fatalf("expected error for unknown code")
	}
}
