package utils

import "testing"

func TestNormalizeCatalogName(t *testing.T) {
	cases := map[string]string{
		"  Concreto  ":        "Concreto",
		"Poste   de\tmadera":  "Poste de madera",
		"":                    "",
		"   ":                 "",
	}
	for in, want := range cases {
		if got := NormalizeCatalogName(in); got != want {
			t.Fatalf("NormalizeCatalogName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasListSeparator(t *testing.T) {
	for _, v := range []string{"Bueno/Malo", "Bueno, Malo", "A;B"} {
		if !HasListSeparator(v) {
			t.Fatalf("expected %q to contain a separator", v)
		}
	}
	if HasListSeparator("Bueno") {
		t.Fatalf("plain name reported as list")
	}
}
