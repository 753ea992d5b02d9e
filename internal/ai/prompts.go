package ai

import (
	"fmt"
	"strconv"
	"time"
)

const payloadShape = `{
    "subtasks": [
        {
            "date": "YYYY-MM-DD",
            "taskTitle": "Task title",
            "description": "Brief description",
            "estimatedHours": 2.5,
            "priority": "high/medium/low"
        }
    ],
    "summary": "Brief summary of the plan"
}`

const decompositionSystemPrompt = `You are an AI task management assistant. Your job is to help users break down large tasks into smaller, manageable daily tasks.

When a user provides a main task, deadline, and available hours per day, you should:
1. Analyze the task complexity
2. Create a daily schedule that spans from today to the deadline
3. Break the main task into specific subtasks for each day
4. Estimate time for each subtask
5. Prioritize subtasks based on dependencies and importance

Return the response in JSON format with the following structure:
` + payloadShape

const efficiencySystemPrompt = `You are an AI efficiency analyst. Based on the user's task completion history, provide insights and recommendations.

Analyze the following metrics:
1. Task completion rate
2. Time estimation accuracy
3. Task priority distribution
4. Completion patterns

Provide actionable recommendations to improve productivity.`

func decompositionPrompt(req DecompositionRequest, today time.Time) string {
	return fmt.Sprintf(`Please decompose the following task into daily subtasks:

Main Task: %s
Description: %s
Days Available: %d
Hours Per Day: %s
Priority: %s

Today's date: %s

Please return a JSON response with the following structure:
%s`,
		req.MainTask,
		req.Description,
		req.DaysAvailable,
		strconv.FormatFloat(req.HoursPerDay, 'f', -1, 64),
		req.Priority,
		today.Format(DateLayout),
		payloadShape,
	)
}

func efficiencyPrompt(stats EfficiencyStats) string {
	return fmt.Sprintf(`Based on my task completion history, please provide efficiency analysis and recommendations:

- Completed Tasks: %d
- Total Tasks: %d
- Average Estimated Hours: %.1f
- Average Actual Hours: %.1f
- On-Time Completion Rate: %.1f%%

Please provide:
1. Current efficiency assessment
2. Key bottlenecks
3. Specific recommendations to improve productivity
4. Estimated improvement potential

Keep the response concise and actionable.`,
		stats.CompletedTasks,
		stats.TotalTasks,
		stats.AverageEstimatedHours,
		stats.AverageActualHours,
		stats.OnTimeCompletionRate,
	)
}
