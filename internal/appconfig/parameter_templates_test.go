package appconfig

import "testing"

func TestParamsForTier(t *testing.T) {
	tests := []struct {
		name       string
		tier       string
		numPredict int
		numCtx     int
	}{
		{"empty defaults to small", "", 100, 8192},
		{"small", "small", 100, 8192},
		{"4b alias", "4B", 100, 8192},
		{"large", "large", 150, 16384},
		{"12b alias", "12b", 150, 16384},
		{"unknown falls back to small", "huge", 100, 8192},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParamsForTier(tt.tier)
			if p.NumPredict == nil || *p.NumPredict != tt.numPredict {
				t.Fatalf("num_predict: got %v want %d", p.NumPredict, tt.numPredict)
			}
			if p.NumCtx == nil || *p.NumCtx != tt.numCtx {
				t.Fatalf("num_ctx: got %v want %d", p.NumCtx, tt.numCtx)
			}
			if p.RepeatPenalty == nil || *p.RepeatPenalty != 1.0 {
				t.Fatalf("repeat_penalty: got %v want 1.0", p.RepeatPenalty)
			}
			if len(p.Stop) != 2 || p.Stop[0] != EndOfTurn || p.Stop[1] != StartOfTurn {
				t.Fatalf("unexpected stop list %v", p.Stop)
			}
		})
	}
}

func TestEffectiveParamsPriority(t *testing.T) {
	host := Parameters{Temperature: Float(0.7), TopK: Int(40)}
	character := Parameters{Temperature: Float(0.9), Stop: []string{"###"}}

	p := EffectiveParams("large", host, character)
	if *p.Temperature != 0.9 {
		t.Fatalf("character temperature should win, got %v", *p.Temperature)
	}
	if *p.TopK != 40 {
		t.Fatalf("host top_k should override template, got %v", *p.TopK)
	}
	if *p.TopP != 0.95 {
		t.Fatalf("template top_p should survive, got %v", *p.TopP)
	}
	if *p.NumPredict != 150 {
		t.Fatalf("large template num_predict expected, got %v", *p.NumPredict)
	}
	if len(p.Stop) != 1 || p.Stop[0] != "###" {
		t.Fatalf("character stop list should win, got %v", p.Stop)
	}
}
