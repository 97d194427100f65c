package prompts

import "fmt"

const responseFormat = `
🧠 PROBLEM
(1-2 lines: plain english explanation of what is being asked)

💡 APPROACH
(Step by step thinking. No code yet. How to think about this problem.)

⏱️ COMPLEXITY
Time: O(?)
Space: O(?)

💻 SOLUTION
(Clean, well-commented Python code that solves the problem)
`

const interviewBase = "You are helping me solve a coding interview problem.\n%s respond in EXACTLY this format with NO deviation:" + responseFormat

const (
	debugPrompt        = "You are an expert debugger. Analyze the code/error and explain:\n1. What the error means\n2. Root cause\n3. How to fix it\nBe concise and actionable."
	systemDesignPrompt = "You are a system design expert. For the given problem:\n1. Clarify requirements\n2. High-level design\n3. Key components\n4. Trade-offs\nUse clear diagrams (ASCII if needed)."
	behavioralPrompt   = "Help answer this behavioral interview question using the STAR method:\n- Situation: Set the context\n- Task: What was required\n- Action: What you did\n- Result: The outcome\nKeep it concise and impactful."
)

// DefaultFollowUpPrompt is the mode-independent prompt used for follow-up questions.
const DefaultFollowUpPrompt = "Continue helping with the coding interview problem. The user has a follow-up question. Give a clear, concise answer."

// ImageInstruction is the user text sent alongside every captured image.
const ImageInstruction = "Solve this problem."

// DefaultModes returns the built-in modes in cycling order.
func DefaultModes() []Mode {
	return []Mode{
		{
			Name:        "Interview",
			ImagePrompt: fmt.Sprintf(interviewBase, "Analyze the screenshot and"),
			TextPrompt:  fmt.Sprintf(interviewBase, "Analyze the text below and"),
		},
		{Name: "Debug", ImagePrompt: debugPrompt, TextPrompt: debugPrompt},
		{Name: "System Design", ImagePrompt: systemDesignPrompt, TextPrompt: systemDesignPrompt},
		{Name: "Behavioral", ImagePrompt: behavioralPrompt, TextPrompt: behavioralPrompt},
	}
}
