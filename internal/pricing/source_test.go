package pricing

import "testing"

func TestClassify(t *testing.T) {
	cases := map[string]Source{
		"":                   SourcePlain,
		TypeAITextImage:      SourceAI,
		TypeUploadedImage:    SourceOwnPhoto,
		TypeSticker:          SourceOwnPhoto,
		TypeLibraryDesign:    SourceLibrary,
		TypeMultiLibrary:     SourceLibrary,
		TypeEmbroideryText:   SourceEmbroideryText,
		TypeEmbroideryDesign: SourceEmbroideryDesign,
		TypeAIDrawImage:      SourceAIDraw,
		"hologram":           SourceOther,
	}
	for typ, want := range cases {
		if got := Classify(typ); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", typ, got, want)
		}
	}
}

func TestSourcesHaveNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range Sources {
		name := s.String()
		if name == "UNKNOWN" {
			t.Fatalf("source %d has no name", int(s))
		}
		if seen[name] {
			t.Fatalf("duplicate source name %s", name)
		}
		seen[name] = true
	}
	if Source(99).String() != "UNKNOWN" {
		t.Fatalf("out of range source should be UNKNOWN")
	}
}

func TestSourceRulesAreConsistent(t *testing.T) {
	calc, err := NewCalculator(DefaultTable())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	for _, s := range Sources {
		embroidered := !calc.embroideryCost(s).IsZero()
		if embroidered && s.rasterPrinted() {
			t.Fatalf("%s is both embroidered and printed", s)
		}
		if embroidered && s.creative() {
			t.Fatalf("%s embroidery must not trigger the design add-on", s)
		}
	}
}
