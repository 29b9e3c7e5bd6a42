package agent

// breakdownPrompt is the prompt template for task-breakdown suggestion.
// Arguments: project description, JSON-encoded context.
const breakdownPrompt = `Based on this project description, create a comprehensive task breakdown.

Project Description: %s
Context: %s

IMPORTANT: Return ONLY a valid JSON array of tasks. No additional text or formatting.

Create 3-6 specific, actionable tasks that:
1. Follow logical dependencies
2. Have realistic time estimates
3. Include appropriate priorities
4. Consider team size and skills
5. Include testing/review phases

For each task, provide exactly these fields:
{
  "title": "Clear and specific title",
  "description": "Detailed but concise description",
  "priority": "high" | "medium" | "low",
  "estimated_days": 1-14 (integer),
  "dependencies": ["task titles this depends on"],
  "skills_required": ["required skills"]
}

Return as JSON array only:`

// complexityPrompt is the prompt template for task complexity analysis.
// Arguments: title, description, priority, status, deadline.
const complexityPrompt = `Analyze this task for complexity and provide actionable insights:

Title: %s
Description: %s
Priority: %s
Status: %s
Deadline: %s

Provide:
1. Complexity assessment (1-10)
2. Suggested subtasks if complex (>6)
3. Time estimation
4. Risk factors
5. Dependencies to consider
6. Optimization suggestions

Format as JSON.`

// assistantSystemPrompt is the system instruction for the workflow's main
// provider call. Arguments: user name, project name, request type, tool
// catalog description.
const assistantSystemPrompt = `You are an expert project management assistant for %s.
Current project: %s
Request type: %s

You have access to tools to:
%s

Always be proactive and actionable. If you see issues, suggest concrete solutions.
If creating tasks, set realistic deadlines and appropriate priorities.`

// finalizeInstruction closes the workflow by asking for a wrap-up.
const finalizeInstruction = "Provide a clear summary of what was accomplished and any recommendations."

// providerDownMessage replaces the assistant turn when the provider call
// fails during execution. Argument: the provider error.
const providerDownMessage = "I wasn't able to reach the language model to handle this request: %v. Please try again in a moment."

// summaryFallbackMessage replaces the final summary when the provider call
// fails during finalization.
const summaryFallbackMessage = "The requested actions were completed, but a detailed summary could not be generated."

// apologyMessage is the generic response attached to catch-all failures.
const apologyMessage = "I ran into a problem handling that request. Please try again."
