package service

import "testing"

func TestExtractLLMJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":[1,2]}\n```", want: `{"a":[1,2]}`},
		{name: "bom and prose", in: "\uFEFFHere you go: {\"a\":\"}\"} thanks", want: `{"a":"}"}`},
		{name: "bare array", in: `sure [{"text":"x"}]`, want: `[{"text":"x"}]`},
		{name: "escaped quote", in: `{"a":"say \"hi\" {"}`, want: `{"a":"say \"hi\" {"}`},
		{name: "mismatched", in: `{"a":[1}`, want: ""},
		{name: "unterminated", in: `{"a":"open`, want: ""},
		{name: "no json", in: "nothing here", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractLLMJSON(tc.in); got != tc.want {
				t.Fatalf("extractLLMJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseSuggestions_BareArray(t *testing.T) {
	got, err := parseSuggestions(`[{"text":"write a haiku","category":"creative","confidence":0.8}]`, 5)
	if err != nil || len(got) != 1 || got[0].Text != "write a haiku" {
		t.Fatalf("unexpected parse: %+v %v", got, err)
	}
}
