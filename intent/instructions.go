package intent

// Instruction pairs the response directive and its format hint for one intent.
// Both are substituted verbatim into the generation prompt.
type Instruction struct {
	Directive string
	Format    string
}

var instructions = map[Intent]Instruction{
	Summarization: {
		Directive: "Summarize in 6-7 sentences.",
		Format:    "Use plain text.",
	},
	Explanation: {
		Directive: "Explain step-by-step.",
		Format:    "Use numbered steps if applicable.",
	},
	List: {
		Directive: "Provide a detailed response.",
		Format:    "Use bullet points for key items or steps.",
	},
	General: {
		Directive: "Answer directly.",
		Format:    "Use plain text; if the query is unclear, ask for clarification.",
	},
}

// InstructionFor returns the instruction pair for an intent.
// Unknown values fall back to the General instruction.
func InstructionFor(i Intent) Instruction {
	if instr, ok := instructions[i]; ok {
		return instr
	}
	return instructions[General]
}
