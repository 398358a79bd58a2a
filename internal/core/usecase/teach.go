package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

// TeachUseCase walks a deck's syllabus topic by topic: it generates lessons
// from retrieved deck material, reacts to user actions (next, more, slower,
// practice, example, repeat, exit) and tracks progress in the session store.
type TeachUseCase struct {
	decks     ports.DeckRepository
	sessions  ports.SessionStore
	retriever *Retriever
	practice  *PracticeGenerator
	oracle    ports.Oracle
}

func NewTeachUseCase(
	decks ports.DeckRepository,
	sessions ports.SessionStore,
	retriever *Retriever,
	practice *PracticeGenerator,
	oracle ports.Oracle,
) *TeachUseCase {
	return &TeachUseCase{
		decks:     decks,
		sessions:  sessions,
		retriever: retriever,
		practice:  practice,
		oracle:    oracle,
	}
}

// Start begins (or restarts) a teaching session at the first topic, or at
// startingTopic when it names a syllabus topic.
func (uc *TeachUseCase) Start(ctx context.Context, userID, deckID, startingTopic string, pace domain.Pace) (*domain.TeachingReply, error) {
	deck, err := uc.decks.GetDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	if deck.UserID != userID {
		return nil, domain.WrapError(domain.ErrAccessDenied, "start teaching", errors.New("deck belongs to another user"))
	}
	if len(deck.SyllabusTopics) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start teaching", errors.New("deck has no parsed syllabus topics"))
	}

	session := uc.sessions.GetOrCreate(userID, deckID)
	session.Teaching = domain.TeachingState{
		SyllabusTopics: deck.SyllabusTopics,
		Depth:          domain.NormalizePace(string(pace)),
		Active:         true,
		StartedAt:      time.Now().UTC(),
	}
	if startingTopic != "" {
		for i, topic := range deck.SyllabusTopics {
			if strings.EqualFold(topic, startingTopic) {
				session.Teaching.CurrentTopicIndex = i
				break
			}
		}
	}
	session.Mode = domain.ModeTeaching

	reply, err := uc.teachCurrent(ctx, session, "initial")
	if err != nil {
		return nil, err
	}
	uc.sessions.Save(session)
	return reply, nil
}

// HandleInput routes one user turn inside an active session.
func (uc *TeachUseCase) HandleInput(ctx context.Context, userID, deckID, input string) (*domain.TeachingReply, error) {
	session, ok := uc.sessions.Get(userID, deckID)
	if !ok || !session.Teaching.Active {
		return nil, domain.WrapError(domain.ErrInvalidInput, "teaching input", errors.New("no active teaching session"))
	}

	session.AddMessage("user", input, "", "chat")

	var reply *domain.TeachingReply
	var err error
	switch ParseUserAction(input) {
	case domain.ActionNextTopic:
		reply, err = uc.moveToNext(ctx, session)
	case domain.ActionExplainMore:
		reply, err = uc.teachCurrent(ctx, session, "deeper")
	case domain.ActionExplainSlower:
		session.Teaching.TopicsNeedingReview = append(session.Teaching.TopicsNeedingReview, session.Teaching.CurrentTopic())
		reply, err = uc.teachCurrent(ctx, session, "simpler")
	case domain.ActionExample:
		reply, err = uc.provideExamples(ctx, session)
	case domain.ActionPractice:
		reply, err = uc.providePractice(ctx, session)
	case domain.ActionRepeat:
		reply, err = uc.teachCurrent(ctx, session, "initial")
	case domain.ActionExit:
		reply = uc.exitTeaching(session)
	case domain.ActionSkip:
		reply, err = uc.skipToTopic(ctx, session, input)
	default:
		reply, err = uc.answerInContext(ctx, session, input)
	}
	if err != nil {
		return nil, err
	}

	uc.sessions.Save(session)
	return reply, nil
}

func (uc *TeachUseCase) teachCurrent(ctx context.Context, session *domain.Session, requestType string) (*domain.TeachingReply, error) {
	state := &session.Teaching
	topic := state.CurrentTopic()
	if topic == "" {
		session.Mode = domain.ModeIdle
		state.Active = false
		return uc.reply(session, "Congratulations, you have completed all topics in the syllabus.", "", "completed", false), nil
	}

	material, err := uc.retriever.RetrieveForTopic(ctx, session.UserID, session.DeckID, topic, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve topic material: %w", err)
	}
	if material == "" {
		material = fmt.Sprintf("Topic: %s\n(Limited material available for this topic)", topic)
	}

	var previous string
	if requestType == "deeper" || requestType == "simpler" {
		previous = session.LastLesson(topic)
	}

	lesson, err := uc.generateLesson(ctx, topic, material, state.Depth, previous, requestType)
	if err != nil {
		return nil, fmt.Errorf("generate lesson: %w", err)
	}

	session.AddMessage("assistant", lesson, topic, "lesson")
	session.Mode = domain.ModeAwaiting
	return uc.reply(session, lesson, topic, "taught_"+requestType, true), nil
}

func (uc *TeachUseCase) moveToNext(ctx context.Context, session *domain.Session) (*domain.TeachingReply, error) {
	state := &session.Teaching
	if current := state.CurrentTopic(); current != "" {
		state.TopicsCompleted = append(state.TopicsCompleted, current)
	}
	state.CurrentTopicIndex++

	if state.CurrentTopicIndex >= len(state.SyllabusTopics) {
		session.Mode = domain.ModeIdle
		state.Active = false
		summary := fmt.Sprintf(
			"You have completed the entire syllabus.\nTopics covered: %d\nTopics needing review: %d",
			len(state.TopicsCompleted), len(state.TopicsNeedingReview),
		)
		if len(state.TopicsNeedingReview) > 0 {
			summary += "\nTo review: " + strings.Join(state.TopicsNeedingReview, ", ")
		}
		session.AddMessage("assistant", summary, "", "system")
		return uc.reply(session, summary, "", "completed_syllabus", false), nil
	}

	return uc.teachCurrent(ctx, session, "initial")
}

func (uc *TeachUseCase) provideExamples(ctx context.Context, session *domain.Session) (*domain.TeachingReply, error) {
	topic := session.Teaching.CurrentTopic()
	material, err := uc.retriever.RetrieveForTopic(ctx, session.UserID, session.DeckID, topic, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve topic material: %w", err)
	}

	prompt := fmt.Sprintf(`You are a tutor providing worked examples for: %s

STUDY MATERIAL:
%s

Provide 2-3 detailed examples that illustrate this topic.
For each example:
1. State the problem/scenario clearly
2. Show the step-by-step solution
3. Explain the reasoning at each step
4. Highlight common mistakes to avoid`, topic, material)

	examples, err := uc.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate examples: %w", err)
	}

	session.AddMessage("assistant", examples, topic, "lesson")
	session.Mode = domain.ModeAwaiting
	return uc.reply(session, examples, topic, "provided_examples", true), nil
}

func (uc *TeachUseCase) providePractice(ctx context.Context, session *domain.Session) (*domain.TeachingReply, error) {
	topic := session.Teaching.CurrentTopic()
	set, err := uc.practice.Generate(ctx, session.UserID, session.DeckID, topic, session.Teaching.Depth)
	if err != nil {
		return nil, fmt.Errorf("generate practice: %w", err)
	}

	text := FormatPracticeSet(set)
	session.AddMessage("assistant", text, topic, "practice")
	session.Mode = domain.ModeAwaiting
	return uc.reply(session, text, topic, "provided_practice", true), nil
}

func (uc *TeachUseCase) answerInContext(ctx context.Context, session *domain.Session, question string) (*domain.TeachingReply, error) {
	topic := session.Teaching.CurrentTopic()

	material, err := uc.retriever.RetrieveForTopic(ctx, session.UserID, session.DeckID, topic, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve topic material: %w", err)
	}

	var history []string
	for _, msg := range session.RecentMessages(0) {
		role := "Assistant"
		if msg.Role == "user" {
			role = "User"
		}
		content := msg.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		history = append(history, fmt.Sprintf("%s: %s", role, content))
	}

	prompt := fmt.Sprintf(`You are a tutor answering a student's question.

CURRENT TOPIC: %s

PREVIOUS CONVERSATION:
%s

STUDY MATERIAL:
%s

STUDENT'S QUESTION:
%s

Answer the question:
1. Stay focused on the current topic: %s
2. Use only information from the study material
3. Reference the previous conversation if relevant
4. If the question is off-topic, gently redirect to the current topic`,
		topic, strings.Join(history, "\n"), material, question, topic)

	answer, err := uc.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}

	session.AddMessage("assistant", answer, topic, "chat")
	session.Mode = domain.ModeAwaiting
	return uc.reply(session, answer, topic, "answered_question", true), nil
}

func (uc *TeachUseCase) skipToTopic(ctx context.Context, session *domain.Session, input string) (*domain.TeachingReply, error) {
	state := &session.Teaching
	lower := strings.ToLower(input)
	for i, topic := range state.SyllabusTopics {
		if strings.Contains(lower, strings.ToLower(topic)) {
			state.CurrentTopicIndex = i
			return uc.teachCurrent(ctx, session, "initial")
		}
	}

	msg := "I couldn't find that topic. Available topics:\n" + strings.Join(state.SyllabusTopics, "\n")
	session.AddMessage("assistant", msg, "", "system")
	return uc.reply(session, msg, state.CurrentTopic(), "topic_not_found", true), nil
}

func (uc *TeachUseCase) exitTeaching(session *domain.Session) *domain.TeachingReply {
	state := &session.Teaching
	state.Active = false
	session.Mode = domain.ModeFreeChat

	msg := fmt.Sprintf(
		"Teaching session paused.\nProgress: %d/%d topics\nCurrent topic: %s",
		state.CurrentTopicIndex, len(state.SyllabusTopics), state.CurrentTopic(),
	)
	session.AddMessage("assistant", msg, "", "system")
	return uc.reply(session, msg, state.CurrentTopic(), "exited_teaching", false)
}

// Resume continues a paused session from its current topic.
func (uc *TeachUseCase) Resume(ctx context.Context, userID, deckID string) (*domain.TeachingReply, error) {
	session, ok := uc.sessions.Get(userID, deckID)
	if !ok || len(session.Teaching.SyllabusTopics) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resume teaching", errors.New("no teaching session to resume"))
	}
	session.Teaching.Active = true
	session.Mode = domain.ModeTeaching

	reply, err := uc.teachCurrent(ctx, session, "initial")
	if err != nil {
		return nil, err
	}
	uc.sessions.Save(session)
	return reply, nil
}

func (uc *TeachUseCase) reply(session *domain.Session, message, topic, action string, awaiting bool) *domain.TeachingReply {
	return &domain.TeachingReply{
		Message:       message,
		Topic:         topic,
		ActionTaken:   action,
		Mode:          session.Mode,
		Teaching:      session.Teaching,
		AwaitingInput: awaiting,
	}
}

var lessonDepth = map[domain.Pace]string{
	domain.PaceSlow: `- Use simple, everyday language
- Explain every concept from the ground up
- Use many analogies and real-world comparisons
- Assume no prior knowledge
- Provide multiple examples for each concept`,
	domain.PaceMedium: `- Balance theory and examples
- Assume basic foundational knowledge
- Explain key concepts thoroughly
- Include 1-2 examples per concept`,
	domain.PaceFast: `- Be concise and to the point
- Focus on key facts and formulas
- Use technical terminology freely
- Quick examples only`,
}

func (uc *TeachUseCase) generateLesson(ctx context.Context, topic, material string, depth domain.Pace, previous, requestType string) (string, error) {
	request := "This is the first explanation of this topic."
	if previous != "" {
		if len(previous) > 1000 {
			previous = previous[:1000]
		}
		switch requestType {
		case "deeper":
			request = fmt.Sprintf("The student asked for MORE DEPTH. Their previous explanation was:\n%s\nNow go DEEPER: more details, edge cases and advanced concepts.", previous)
		case "simpler":
			request = fmt.Sprintf("The student said they DON'T UNDERSTAND. Previous explanation:\n%s\nNow explain it SIMPLER: easier words, more analogies, smaller pieces.", previous)
		}
	}

	prompt := fmt.Sprintf(`You are a patient, expert tutor teaching a student.

TOPIC TO TEACH: %s

DEPTH LEVEL: %s
%s

REQUEST TYPE: %s
%s

STUDY MATERIAL (use this as your source):
%s

INSTRUCTIONS:
1. Teach ONLY this topic: "%s"
2. Use ONLY information from the study material
3. Structure your lesson clearly with headers
4. Include relevant formulas if applicable
5. End with a brief summary of key points`,
		topic, strings.ToUpper(string(depth)), lessonDepth[depth], requestType, request, material, topic)

	return uc.oracle.Complete(ctx, prompt)
}

// ParseUserAction maps free-form input during teaching to an action,
// tolerating natural language variations. Unmatched input is treated as a
// question about the current topic.
func ParseUserAction(input string) domain.UserAction {
	text := strings.ToLower(strings.TrimSpace(input))

	contains := func(keywords ...string) bool {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("skip to", "go to", "jump to"):
		return domain.ActionSkip
	case contains("next", "continue", "move on", "go ahead", "proceed"):
		return domain.ActionNextTopic
	case contains("more detail", "explain more", "deeper", "elaborate", "tell me more", "in depth"):
		return domain.ActionExplainMore
	case contains("slower", "simpler", "simplify", "easier", "don't understand", "didn't understand", "confused", "not clear"):
		return domain.ActionExplainSlower
	case contains("practice", "quiz", "test me", "problems", "exercise"):
		return domain.ActionPractice
	case contains("example", "show me", "demonstrate", "illustration"):
		return domain.ActionExample
	case contains("repeat", "again", "one more time", "say that again"):
		return domain.ActionRepeat
	case contains("exit", "stop", "quit", "end", "done", "finish teaching"):
		return domain.ActionExit
	default:
		return domain.ActionQuestion
	}
}
