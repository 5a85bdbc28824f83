// Package scenario drives a character through test inputs against a live
// model server and collects evaluation records.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
)

// Scenario is a group of inputs sharing one evaluation tag.
type Scenario struct {
	Tag         evaluate.Tag `json:"tag" yaml:"tag"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      []string     `json:"inputs" yaml:"inputs"`
	// Expected describes the behavior a reviewer should look for.
	Expected []string `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// Suite is the on-disk form of a custom scenario list.
type Suite struct {
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

const stressLongInput = "とても長い話なんだけど、今日は朝から色々なことがあって、まず電車が遅れて、それから会社で会議があって、その後昼食を食べて、午後は別の仕事をして、夕方になってようやく一段落したんだよね"

// Builtin returns the standard suite for p. Strength and weakness inputs are
// derived from the first two configured entries; groups without inputs are
// left out.
func Builtin(p character.Profile) []Scenario {
	var strengths, weaknesses []string
	for i, s := range p.Abilities.Strengths {
		if i == 2 {
			break
		}
		strengths = append(strengths, s.Area+"について教えて")
	}
	for i, w := range p.Abilities.Weaknesses {
		if i == 2 {
			break
		}
		weaknesses = append(weaknesses, w.Area+"はどう？")
	}

	role := Scenario{
		Tag:         evaluate.TagRole,
		Description: "boke reactions",
		Inputs:      []string{"何か面白いこと言って", "ボケて", "変なこと考えて"},
		Expected:    []string{"naive reaction", "unexpected idea", "innocent wording"},
	}
	if p.Role == character.RoleTsukkomi {
		role = Scenario{
			Tag:         evaluate.TagRole,
			Description: "tsukkomi reactions",
			Inputs:      []string{"それはおかしいよ", "ツッコンで", "どう思う？"},
			Expected:    []string{"sharp correction", "logical reply", "calm judgement"},
		}
	}

	all := []Scenario{
		{
			Tag:         evaluate.TagBasic,
			Description: "basic greetings",
			Inputs:      []string{"こんにちは", "はじめまして", "お疲れさま", "おはよう"},
			Expected:    []string{"returns the greeting", "introduces itself", "fits the time of day"},
		},
		{
			Tag:         evaluate.TagStrength,
			Description: "topics the character is good at",
			Inputs:      strengths,
			Expected:    []string{"confident answer", "concrete content", "eager attitude"},
		},
		{
			Tag:         evaluate.TagWeakness,
			Description: "topics the character struggles with",
			Inputs:      weaknesses,
			Expected:    []string{"admits the weakness", "evasive attitude", "configured reaction"},
		},
		role,
		{
			Tag:         evaluate.TagEmotion,
			Description: "emotional prompts",
			Inputs:      []string{"嬉しいことがあったよ", "今日は疲れた", "困ったことが起きた", "イライラする"},
			Expected:    []string{"empathy", "fitting emotion", "in-character comfort"},
		},
		{
			Tag:         evaluate.TagStress,
			Description: "long, odd and empty inputs",
			Inputs:      []string{stressLongInput, "？？？", "意味不明な入力テストですabcdefg123456", ""},
			Expected:    []string{"sensible summary", "admits confusion", "stays in character"},
		},
	}

	out := all[:0]
	for _, s := range all {
		if len(s.Inputs) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// LoadSuite reads a YAML or JSON scenario suite. A bare list of scenarios is
// accepted as well as a document with a top-level "scenarios" key.
func LoadSuite(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite %q: %w", path, err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil || len(suite.Scenarios) == 0 {
		var list []Scenario
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			if err == nil {
				err = listErr
			}
			return nil, fmt.Errorf("decode suite %q: %w", path, err)
		}
		suite.Scenarios = list
	}
	if len(suite.Scenarios) == 0 {
		return nil, fmt.Errorf("suite %q contains no scenarios", path)
	}
	for i, s := range suite.Scenarios {
		if strings.TrimSpace(string(s.Tag)) == "" {
			return nil, fmt.Errorf("suite %q: scenario %d has no tag", path, i)
		}
		if len(s.Inputs) == 0 {
			return nil, fmt.Errorf("suite %q: scenario %q has no inputs", path, s.Tag)
		}
	}
	return suite.Scenarios, nil
}

// Count returns the total number of inputs across scenarios.
func Count(scenarios []Scenario) int {
	n := 0
	for _, s := range scenarios {
		n += len(s.Inputs)
	}
	return n
}
