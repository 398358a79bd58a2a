package domain

import "time"

// TeachingMode is the current interaction mode of a session.
type TeachingMode string

const (
	ModeIdle     TeachingMode = "idle"
	ModeTeaching TeachingMode = "teaching"
	ModeAwaiting TeachingMode = "awaiting"
	ModePractice TeachingMode = "practice"
	ModeFreeChat TeachingMode = "free_chat"
)

// UserAction is a parsed user intent inside a teaching session.
type UserAction string

const (
	ActionNextTopic     UserAction = "next"
	ActionExplainMore   UserAction = "more"
	ActionExplainSlower UserAction = "slower"
	ActionPractice      UserAction = "practice"
	ActionExample       UserAction = "example"
	ActionQuestion      UserAction = "question"
	ActionRepeat        UserAction = "repeat"
	ActionSkip          UserAction = "skip"
	ActionExit          UserAction = "exit"
)

// Message is one entry in a session's conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Topic     string    `json:"topic,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// TeachingState tracks progress through a deck's syllabus topics.
type TeachingState struct {
	SyllabusTopics      []string  `json:"syllabus_topics"`
	CurrentTopicIndex   int       `json:"current_topic_index"`
	TopicsCompleted     []string  `json:"topics_completed"`
	TopicsNeedingReview []string  `json:"topics_needing_review"`
	Depth               Pace      `json:"depth"`
	Active              bool      `json:"active"`
	StartedAt           time.Time `json:"started_at"`
}

// CurrentTopic returns the topic under instruction, or "" when the syllabus
// is exhausted.
func (s *TeachingState) CurrentTopic() string {
	if s.CurrentTopicIndex >= 0 && s.CurrentTopicIndex < len(s.SyllabusTopics) {
		return s.SyllabusTopics[s.CurrentTopicIndex]
	}
	return ""
}

// ProgressPercent reports how far through the syllabus the session is.
func (s *TeachingState) ProgressPercent() float64 {
	if len(s.SyllabusTopics) == 0 {
		return 0
	}
	return float64(s.CurrentTopicIndex) / float64(len(s.SyllabusTopics)) * 100
}

// Session is the per-(user,deck) interactive state: conversation history plus
// teaching progress. Stored with a TTL keyed on last activity.
type Session struct {
	ID            string        `json:"session_id"`
	UserID        string        `json:"user_id"`
	DeckID        string        `json:"deck_id"`
	CreatedAt     time.Time     `json:"created_at"`
	LastActivity  time.Time     `json:"last_activity"`
	Messages      []Message     `json:"messages"`
	Teaching      TeachingState `json:"teaching_state"`
	Mode          TeachingMode  `json:"mode"`
	ContextWindow int           `json:"context_window"`
}

// AddMessage appends to the conversation history and bumps activity.
func (s *Session) AddMessage(role, content, topic, msgType string) {
	if topic == "" {
		topic = s.Teaching.CurrentTopic()
	}
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Topic:     topic,
		Type:      msgType,
		Timestamp: time.Now().UTC(),
	})
	s.LastActivity = time.Now().UTC()
}

// RecentMessages returns up to n trailing messages, defaulting to the
// session's context window.
func (s *Session) RecentMessages(n int) []Message {
	if n <= 0 {
		n = s.ContextWindow
	}
	if n <= 0 || n > len(s.Messages) {
		n = len(s.Messages)
	}
	return s.Messages[len(s.Messages)-n:]
}

// LastLesson returns the most recent lesson content for a topic, or "".
func (s *Session) LastLesson(topic string) string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Type == "lesson" && s.Messages[i].Topic == topic {
			return s.Messages[i].Content
		}
	}
	return ""
}

// TeachingReply is what the teaching flow returns for one user turn.
type TeachingReply struct {
	Message       string        `json:"message"`
	Topic         string        `json:"topic"`
	ActionTaken   string        `json:"action_taken"`
	Mode          TeachingMode  `json:"mode"`
	Teaching      TeachingState `json:"progress"`
	AwaitingInput bool          `json:"awaiting_input"`
}
