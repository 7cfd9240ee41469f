package profile

import (
	"testing"

	"retail-assortment-optimizer/pkg/domain"
)

func TestNewManager_SeedsNineDefaultTemplates(t *testing.T) {
	m := NewManager()
	if len(m.ListTemplates()) != 9 {
		t.Fatalf("expected 9 default templates, got %d", len(m.ListTemplates()))
	}
}

func TestGetTemplate_KnownKey(t *testing.T) {
	m := NewManager()
	tmpl, err := m.GetTemplate(TemplateKey{Style: domain.StyleFashionFocused, Capacity: domain.CapacityTierLarge})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Title != "Fashion Flagship" {
		t.Errorf("expected 'Fashion Flagship', got %q", tmpl.Title)
	}
}

func TestGetTemplate_UnknownKeyErrors(t *testing.T) {
	m := &Manager{templates: make(map[TemplateKey]*Template)}
	if _, err := m.GetTemplate(TemplateKey{Style: domain.StyleBalanced, Capacity: domain.CapacityTierMedium}); err == nil {
		t.Error("expected error for unregistered key, got nil")
	}
}

func TestRegisterTemplate_Overrides(t *testing.T) {
	m := NewManager()
	key := TemplateKey{Style: domain.StyleBalanced, Capacity: domain.CapacityTierMedium}
	m.RegisterTemplate(&Template{Key: key, Title: "Custom Title"})
	tmpl, err := m.GetTemplate(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Title != "Custom Title" {
		t.Errorf("expected overridden title, got %q", tmpl.Title)
	}
}

func TestAllNineCombinationsResolve(t *testing.T) {
	m := NewManager()
	styles := []domain.StyleClassification{domain.StyleFashionFocused, domain.StyleBasicFocused, domain.StyleBalanced}
	tiers := []domain.CapacityTier{domain.CapacityTierLarge, domain.CapacityTierMedium, domain.CapacityTierSmall}
	for _, s := range styles {
		for _, c := range tiers {
			if _, err := m.GetTemplate(TemplateKey{Style: s, Capacity: c}); err != nil {
				t.Errorf("missing template for %s/%s: %v", s, c, err)
			}
		}
	}
}
