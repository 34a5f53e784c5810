package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Equity Growth Fund", Equity},
		{"HDFC Top 100 Bluechip Fund - Direct", Equity},
		{"Nippon India Small Cap Fund", Equity},
		{"Kotak Emerging MIDCAP Fund", Equity},
		{"SBI Magnum Gilt Fund", Debt},
		{"ICICI Corporate Bond Fund", Debt},
		{"Aditya Birla Debt Plus", Debt},
		{"Canara Robeco Hybrid Aggressive", Hybrid},
		{"HDFC Balanced Advantage Fund", Hybrid},
		{"UTI Nifty 50 Fund", IndexFund},
		{"HDFC Index Fund - Sensex Plan", IndexFund},
		{"Liquid Cash Fund", Liquid},
		{"Axis Overnight Fund", Liquid},
		{"Parag Parikh Flexi Cap", Other},
		{"", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		// equity is checked before index
		{"Nifty Equity Index Fund", Equity},
		// debt before hybrid
		{"Balanced Debt Fund", Debt},
		// hybrid before liquid
		{"Hybrid Liquid Fund", Hybrid},
		// index before liquid
		{"Nifty Liquid ETF", IndexFund},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	known := make(map[string]bool)
	for _, c := range Categories() {
		known[c] = true
	}

	names := []string{"x", "EQUITY", "bond", "??", "Overnight", "sensex 30", "hybrid", "123"}
	for _, n := range names {
		if c := Classify(n); !known[c] {
			t.Errorf("Classify(%q) = %q is not a known category", n, c)
		}
		if Classify(n) != Classify(n) {
			t.Errorf("Classify(%q) is not deterministic", n)
		}
	}
}

func TestCategories(t *testing.T) {
	want := []string{"Equity", "Debt", "Hybrid", "Index Fund", "Liquid", "Other"}
	got := Categories()
	if len(got) != len(want) {
		t.Fatalf("Categories() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// callers must not be able to mutate the shared list
	got[0] = "mutated"
	if Categories()[0] != Equity {
		t.Error("Categories() returned shared storage")
	}
}
