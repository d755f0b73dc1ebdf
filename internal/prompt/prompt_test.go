package prompt

import "testing"

func TestToString(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  string
	}{
		{
			name:  "nil input",
			input: nil,
			want:  "",
		},
		{
			name:  "empty string",
			input: Text(""),
			want:  "",
		},
		{
			name:  "plain string passes through",
			input: Text("What is Big-O notation?"),
			want:  "What is Big-O notation?",
		},
		{
			name: "single message with one text part",
			input: Message{Role: RoleUser, Parts: []Part{
				{Kind: PartText, Text: "hello"},
			}},
			want: "hello",
		},
		{
			name: "message parts joined with single space",
			input: Message{Role: RoleUser, Parts: []Part{
				{Kind: PartText, Text: "hello"},
				{Kind: PartText, Text: "world"},
			}},
			want: "hello world",
		},
		{
			name: "tool call becomes placeholder",
			input: Message{Role: RoleAssistant, Parts: []Part{
				{Kind: PartText, Text: "running"},
				{Kind: PartToolCall, Name: "search"},
			}},
			want: "running [tool call: search]",
		},
		{
			name: "tool result becomes placeholder",
			input: Message{Role: RoleUser, Parts: []Part{
				{Kind: PartToolResult, Name: "search"},
			}},
			want: "[tool result: search]",
		},
		{
			name:  "empty message list",
			input: Messages{},
			want:  "",
		},
		{
			name: "message list joined with single space",
			input: Messages{
				{Role: RoleUser, Parts: []Part{{Kind: PartText, Text: "first"}}},
				{Role: RoleAssistant, Parts: []Part{{Kind: PartText, Text: "second"}}},
			},
			want: "first second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToString(tt.input)
			if got != tt.want {
				t.Errorf("ToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToStringAssociativity(t *testing.T) {
	a := Message{Role: RoleUser, Parts: []Part{{Kind: PartText, Text: "one two"}}}
	b := Message{Role: RoleAssistant, Parts: []Part{{Kind: PartText, Text: "three"}}}

	joined := ToString(Messages{a, b})
	concatenated := ToString(a) + " " + ToString(b)

	if joined != concatenated {
		t.Errorf("ToString([a,b]) = %q, want %q", joined, concatenated)
	}
}
