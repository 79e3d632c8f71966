package match

import (
	"reflect"
	"strings"
	"testing"
)

func TestVariationsFirstElementIsOriginal(t *testing.T) {
	terms := []string{"BMW G 310", "Honda CB500X", "Triumph", "", "Suzuki V-Strom 250"}
	for _, term := range terms {
		vars := Variations(term)
		if len(vars) == 0 || vars[0] != term {
			t.Errorf("Variations(%q) first element = %v, want the original term", term, vars)
		}
	}
}

func TestVariationsSingleTokenIsSingleton(t *testing.T) {
	for _, term := range []string{"Triumph", "  Ducati  ", ""} {
		if got := Variations(term); len(got) != 1 || got[0] != term {
			t.Errorf("Variations(%q) = %v, want singleton with original", term, got)
		}
	}
}

func TestVariations(t *testing.T) {
	tests := []struct {
		name string
		term string
		want []string
	}{
		{
			name: "HyphensAndTruncation",
			term: "Suzuki V-Strom 250",
			want: []string{"Suzuki V-Strom 250", "Suzuki VStrom 250", "Suzuki V-Strom", "Suzuki 250", "Suzuki V-Strom250"},
		},
		{
			name: "NumericConcatenation",
			term: "BMW G 310",
			want: []string{"BMW G 310", "BMW G", "BMW 310", "BMW G310"},
		},
		{
			name: "FillerSuffixRemoval",
			term: "Kawasaki Ninja 400 SE ABS",
			want: []string{"Kawasaki Ninja 400 SE ABS", "Kawasaki Ninja", "Kawasaki 400", "Kawasaki Ninja 400", "Kawasaki Ninja400SEABS"},
		},
		{
			name: "SingleModelWord",
			term: "Ducati Scrambler",
			want: []string{"Ducati Scrambler"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Variations(tt.term); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Variations(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestVariationsFillerOnlyModelEmitsNoBareBrand(t *testing.T) {
	for _, v := range Variations("Yamaha SX ABS") {
		if strings.TrimSpace(v) == "Yamaha" || strings.HasSuffix(v, " ") {
			t.Errorf("Variations emitted bare brand variant %q", v)
		}
	}
}

func TestVariationsDeduplicatesCaseInsensitively(t *testing.T) {
	vars := Variations("Honda CB 500")
	seen := make(map[string]struct{})
	for _, v := range vars {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			t.Errorf("duplicate variation %q in %v", v, vars)
		}
		seen[key] = struct{}{}
	}
}

func TestVariationsIsPure(t *testing.T) {
	first := Variations("Suzuki V-Strom 250")
	second := Variations("Suzuki V-Strom 250")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Variations not stable: %v then %v", first, second)
	}
}
