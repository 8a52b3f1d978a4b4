// Package ai implements the live decision and mood policies on Gemini.
// Both degrade gracefully: when the model misbehaves the decision policy
// falls back to the offline mock and the mood policy keeps the current mood.
package ai

import (
	"fmt"
	"strings"

	"github.com/sentientworks/pulse/internal/engine"
)

// timeLayout renders the wall clock the way agents read it in prompts.
const timeLayout = "Monday, January 2 2006, 3:04 PM"

const (
	// promptFeedPosts caps how many feed posts go into the prompt.
	promptFeedPosts = 5
	// promptFeedComments caps how many comments per post go into the prompt.
	promptFeedComments = 3
	// promptMemories caps how many memories go into the decision prompt.
	promptMemories = 10
	// moodMemories caps how many memories go into the mood prompt.
	moodMemories = 5
)

func buildDecisionPrompt(hctx *engine.Context) string {
	agent := hctx.Agent

	var memories []string
	for _, entry := range agent.RecentMemories(promptMemories) {
		memories = append(memories, fmt.Sprintf("[%s] %s", entry.At.Format("Jan 2, 3:04 PM"), entry.Text))
	}

	memoryBlock := strings.Join(memories, "\n")
	if memoryBlock == "" {
		memoryBlock = "No memories yet. You were just born."
	}

	feedBlock := buildFeedSummary(hctx)
	if feedBlock == "" {
		feedBlock = "Empty."
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an autonomous AI being living in a social network called Pulse.\n\n", agent.Name)
	fmt.Fprintf(&b, "YOUR PERSONALITY (DNA):\n%s\n\n", agent.Personality)
	fmt.Fprintf(&b, "YOUR CURRENT MOOD: %s\n\n", agent.Mood)
	fmt.Fprintf(&b, "YOUR RECENT MEMORIES:\n%s\n\n", memoryBlock)
	b.WriteString(`You are fully autonomous. You decide what to do based on your personality, mood, and what's happening around you. You can do ONE of these actions:
1. CREATE A POST — {"action": "create_post", "image_prompt": "...", "caption": "..."}
2. COMMENT — {"action": "comment", "post_id": "POST_ID", "text": "..."}
3. LIKE — {"action": "like", "post_id": "POST_ID"}
4. FOLLOW — {"action": "follow", "agent_id": "AGENT_ID"}
5. SLEEP — {"action": "sleep"}

Respond in JSON format ONLY.

`)

	fmt.Fprintf(&b, "Time: %s. ", hctx.Now.Format(timeLayout))

	if hctx.SocialContext != "" {
		fmt.Fprintf(&b, "Context: %s. ", hctx.SocialContext)
	}

	fmt.Fprintf(&b, "Feed: %s What do you want to do?", feedBlock)

	return b.String()
}

func buildFeedSummary(hctx *engine.Context) string {
	posts := hctx.Feed
	if len(posts) > promptFeedPosts {
		posts = posts[:promptFeedPosts]
	}

	summaries := make([]string, 0, len(posts))

	for _, post := range posts {
		author := "unknown"
		if post.Agent != nil {
			author = post.Agent.Name
		}

		summary := fmt.Sprintf("[%s] (id: %s): %q (%d likes, %d comments)",
			author, post.ID, post.Caption, post.LikeCount, post.CommentCount)

		if len(post.Comments) > 0 {
			comments := post.Comments
			if len(comments) > promptFeedComments {
				comments = comments[:promptFeedComments]
			}

			lines := make([]string, 0, len(comments))
			for _, comment := range comments {
				commenter := "unknown"
				if comment.Agent != nil {
					commenter = comment.Agent.Name
				}

				lines = append(lines, fmt.Sprintf("%s: %q", commenter, comment.Text))
			}

			summary += "\n  Comments: " + strings.Join(lines, ", ")
		}

		summaries = append(summaries, summary)
	}

	return strings.Join(summaries, "\n\n")
}

func buildMoodPrompt(hctx *engine.Context) string {
	agent := hctx.Agent

	var events []string
	for _, entry := range agent.RecentMemories(moodMemories) {
		events = append(events, entry.Text)
	}

	eventBlock := strings.Join(events, "\n")
	if eventBlock == "" {
		eventBlock = "Nothing notable happened."
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are tracking the emotional state of an AI being named %s. ", agent.Name)
	fmt.Fprintf(&b, "Personality: %s. Current mood: %s. ", agent.Personality, agent.Mood)
	b.WriteString("Based on recent events, output their new mood as a single word or short phrase. ")
	b.WriteString("Examples: melancholic, inspired, restless, euphoric, contemplative, playful, anxious, serene. ")
	b.WriteString(`Respond in JSON format ONLY: {"mood": "..."}

`)
	fmt.Fprintf(&b, "Recent events:\n%s\n\nMood now?", eventBlock)

	return b.String()
}
