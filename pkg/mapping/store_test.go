package mapping

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"formautofill/models"
	"formautofill/pkg/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadUnknownDomain(t *testing.T) {
	store := setupTestStore(t)

	m := store.Load("example.com")
	if m.Domain != "example.com" {
		t.Errorf("domain = %q, want example.com", m.Domain)
	}
	if m.Rules == nil {
		t.Fatal("rules is nil, want empty slice")
	}
	if len(m.Rules) != 0 {
		t.Errorf("rules = %v, want empty", m.Rules)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	in := models.DomainMapping{
		Domain: "example.com",
		Rules: []models.DomainMappingRule{
			{Selector: "#email1", Meaning: models.MeaningEmail, ValueTemplate: "", LastUpdatedAt: 1700000000000},
			{Selector: "#company", Meaning: models.MeaningCompany, ValueTemplate: "Example KK", LastUpdatedAt: 1700000000001},
		},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out := store.Load("example.com")
	if len(out.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(out.Rules))
	}
	for i, want := range in.Rules {
		got := out.Rules[i]
		if got != want {
			t.Errorf("rule %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestSaveReplacesExistingSelector(t *testing.T) {
	store := setupTestStore(t)

	first := models.DomainMapping{
		Domain: "example.com",
		Rules:  []models.DomainMappingRule{{Selector: "#f", Meaning: models.MeaningTel, LastUpdatedAt: 1}},
	}
	if err := store.Save(first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := models.DomainMapping{
		Domain: "example.com",
		Rules:  []models.DomainMappingRule{{Selector: "#f", Meaning: models.MeaningEmail, LastUpdatedAt: 2}},
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	out := store.Load("example.com")
	if len(out.Rules) != 1 {
		t.Fatalf("got %d rules, want 1 after replacement", len(out.Rules))
	}
	if out.Rules[0].Meaning != models.MeaningEmail || out.Rules[0].LastUpdatedAt != 2 {
		t.Errorf("rule = %+v, want updated meaning/timestamp", out.Rules[0])
	}
}

func TestDomainsAreIsolated(t *testing.T) {
	store := setupTestStore(t)

	a := models.DomainMapping{
		Domain: "a.example",
		Rules:  []models.DomainMappingRule{{Selector: "#f", Meaning: models.MeaningEmail, LastUpdatedAt: 1}},
	}
	if err := store.Save(a); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if got := store.Load("b.example"); len(got.Rules) != 0 {
		t.Errorf("b.example rules = %v, want none", got.Rules)
	}
}

func TestUpsert(t *testing.T) {
	base := models.DomainMapping{
		Domain: "example.com",
		Rules: []models.DomainMappingRule{
			{Selector: "#a", Meaning: models.MeaningEmail, LastUpdatedAt: 1},
		},
	}

	t.Run("appends new selector", func(t *testing.T) {
		out := Upsert(base, "#b", models.MeaningTel, "")
		if len(out.Rules) != 2 {
			t.Fatalf("got %d rules, want 2", len(out.Rules))
		}
		if out.Rules[1].Selector != "#b" || out.Rules[1].Meaning != models.MeaningTel {
			t.Errorf("appended rule = %+v", out.Rules[1])
		}
		if out.Rules[1].LastUpdatedAt == 0 {
			t.Error("timestamp not set")
		}
	})

	t.Run("replaces by exact selector", func(t *testing.T) {
		out := Upsert(base, "#a", models.MeaningFullName, "Taro Yamada")
		if len(out.Rules) != 1 {
			t.Fatalf("got %d rules, want 1", len(out.Rules))
		}
		if out.Rules[0].Meaning != models.MeaningFullName || out.Rules[0].ValueTemplate != "Taro Yamada" {
			t.Errorf("replaced rule = %+v", out.Rules[0])
		}
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		Upsert(base, "#a", models.MeaningTel, "")
		if base.Rules[0].Meaning != models.MeaningEmail {
			t.Errorf("input mutated: %+v", base.Rules[0])
		}
	})
}

func TestLearn(t *testing.T) {
	store := setupTestStore(t)

	corrections := []models.FillItem{
		{FieldID: "#email1", Meaning: models.MeaningEmail, Value: models.StringValue("taro@example.co.jp")},
		{FieldID: "#agree", Meaning: models.MeaningUnknown, Value: models.BoolValue(true)},
	}
	if err := store.Learn("example.com", corrections); err != nil {
		t.Fatalf("learn failed: %v", err)
	}

	m := store.Load("example.com")
	if len(m.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(m.Rules))
	}

	email, ok := m.Rule("#email1")
	if !ok || email.ValueTemplate != "taro@example.co.jp" {
		t.Errorf("email rule = %+v, want value template carried", email)
	}
	agree, ok := m.Rule("#agree")
	if !ok || agree.ValueTemplate != "" {
		t.Errorf("agree rule = %+v, want empty template for boolean correction", agree)
	}
}
