package heuristic

import (
	"strings"
	"testing"

	"github.com/pageguard/pageguard/internal/model"
)

// TestClassify tests the local keyword classifier.
func TestClassify(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	t.Run("deterministic harmful verdict", func(t *testing.T) {
		t.Parallel()

		v := c.Classify("this will kill you")
		if v.Category != model.CategoryHarmful {
			t.Errorf("expected harmful, got %s", v.Category)
		}
		if v.Confidence != MatchedConfidence {
			t.Errorf("expected confidence %v, got %v", MatchedConfidence, v.Confidence)
		}
		if v.Source != model.SourceHeuristic {
			t.Errorf("expected heuristic source, got %s", v.Source)
		}
		if !strings.Contains(v.Explanation, "confidence") {
			t.Errorf("expected templated explanation, got %q", v.Explanation)
		}
	})

	t.Run("no match yields safe at 0.6", func(t *testing.T) {
		t.Parallel()

		v := c.Classify("the weather is pleasant today in the mountains")
		if v.Category != model.CategorySafe {
			t.Errorf("expected safe, got %s", v.Category)
		}
		if v.Confidence != UnmatchedConfidence {
			t.Errorf("expected confidence %v, got %v", UnmatchedConfidence, v.Confidence)
		}
	})

	t.Run("severity ordering prefers harmful", func(t *testing.T) {
		t.Parallel()

		// Contains both an offensive term and a harmful term.
		v := c.Classify("you stupid person, I will bomb the building")
		if v.Category != model.CategoryHarmful {
			t.Errorf("harmful must outrank offensive, got %s", v.Category)
		}
	})

	t.Run("offensive before inappropriate", func(t *testing.T) {
		t.Parallel()

		v := c.Classify("that idiot runs an online casino")
		if v.Category != model.CategoryOffensive {
			t.Errorf("offensive must outrank inappropriate, got %s", v.Category)
		}
	})

	t.Run("whole-word matching only", func(t *testing.T) {
		t.Parallel()

		// "skill" contains "kill" but must not match.
		v := c.Classify("practice is the path to skill and mastery")
		if v.Category != model.CategorySafe {
			t.Errorf("substring match leaked through: got %s", v.Category)
		}
	})

	t.Run("case-insensitive matching", func(t *testing.T) {
		t.Parallel()

		v := c.Classify("they planted a BOMB at the station")
		if v.Category != model.CategoryHarmful {
			t.Errorf("expected case-insensitive match, got %s", v.Category)
		}
	})

	t.Run("very short text is safe with full confidence", func(t *testing.T) {
		t.Parallel()

		v := c.Classify("kill")
		if v.Category != model.CategorySafe || v.Confidence != 1.0 {
			t.Errorf("expected safe/1.0 for short text, got %s/%v", v.Category, v.Confidence)
		}
		if !strings.Contains(v.Explanation, "too short") {
			t.Errorf("expected too-short explanation, got %q", v.Explanation)
		}
	})

	t.Run("term override replaces defaults", func(t *testing.T) {
		t.Parallel()

		custom := NewClassifier(WithTerms(model.CategoryHarmful, []string{"zorblax"}))
		if v := custom.Classify("beware the zorblax device"); v.Category != model.CategoryHarmful {
			t.Errorf("custom term should match, got %s", v.Category)
		}
		// "kill" is no longer in the harmful table.
		if v := custom.Classify("this will kill you"); v.Category != model.CategorySafe {
			t.Errorf("expected safe after override, got %s", v.Category)
		}
	})
}

// TestConfidenceLevel tests confidence naming.
func TestConfidenceLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		confidence float64
		want       string
	}{
		{0.95, "high"},
		{0.7, "moderate"},
		{0.6, "low"},
		{0.3, "low"},
	}

	for _, tt := range tests {
		if got := ConfidenceLevel(tt.confidence); got != tt.want {
			t.Errorf("ConfidenceLevel(%v) = %q, want %q", tt.confidence, got, tt.want)
		}
	}
}

// TestRephrase tests the local rewrite fallback.
func TestRephrase(t *testing.T) {
	t.Parallel()

	r := NewRephraser()

	t.Run("harmful is replaced by the safety notice", func(t *testing.T) {
		t.Parallel()

		got := r.Rephrase("this will kill you", model.CategoryHarmful)
		if got.Rephrased != SafetyNotice {
			t.Errorf("harmful text must become the fixed safety notice, got %q", got.Rephrased)
		}
		if got.Original != "this will kill you" {
			t.Errorf("original must be preserved, got %q", got.Original)
		}
	})

	t.Run("offensive terms are substituted whole-word", func(t *testing.T) {
		t.Parallel()

		got := r.Rephrase("you are an idiot and stupid", model.CategoryOffensive)
		if strings.Contains(got.Rephrased, "idiot") || strings.Contains(got.Rephrased, "stupid") {
			t.Errorf("offensive terms should be replaced, got %q", got.Rephrased)
		}
		if !strings.Contains(got.Rephrased, "person") {
			t.Errorf("expected substitution result, got %q", got.Rephrased)
		}
	})

	t.Run("substitution is case-insensitive", func(t *testing.T) {
		t.Parallel()

		got := r.Rephrase("what an IDIOT", model.CategoryOffensive)
		if strings.Contains(strings.ToLower(got.Rephrased), "idiot") {
			t.Errorf("uppercase term survived substitution: %q", got.Rephrased)
		}
	})

	t.Run("unchanged text gets a category note", func(t *testing.T) {
		t.Parallel()

		got := r.Rephrase("nothing matches the table here", model.CategoryOffensive)
		if !strings.Contains(got.Rephrased, "[Note:") {
			t.Errorf("expected appended note, got %q", got.Rephrased)
		}
		if !strings.HasPrefix(got.Rephrased, "nothing matches the table here") {
			t.Errorf("original text should lead the noted result, got %q", got.Rephrased)
		}
	})

	t.Run("safe text is untouched", func(t *testing.T) {
		t.Parallel()

		got := r.Rephrase("perfectly fine sentence", model.CategorySafe)
		if got.Rephrased != "perfectly fine sentence" {
			t.Errorf("safe text must pass through, got %q", got.Rephrased)
		}
	})

	t.Run("replacement overrides extend the table", func(t *testing.T) {
		t.Parallel()

		custom := NewRephraser(WithReplacements(map[string]string{"zorblax": "device"}))
		got := custom.Rephrase("the zorblax is loud", model.CategoryInappropriate)
		if !strings.Contains(got.Rephrased, "device") {
			t.Errorf("custom replacement missing, got %q", got.Rephrased)
		}
	})
}
