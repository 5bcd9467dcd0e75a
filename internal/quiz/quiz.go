// Package quiz supplies the ordered, fixed-length question list a match is
// played against. The engine only ever reads it.
package quiz

// Question is one quiz round: a prompt, its options, and the index of the
// correct option. The correct index never leaves the server.
type Question struct {
	Prompt        string   `json:"prompt" bson:"prompt"`
	Options       []string `json:"options" bson:"options"`
	CorrectOption int      `json:"correctOption" bson:"correctOption"`
}

// Source is a read-only ordered question sequence with a fixed length.
type Source interface {
	Question(index int) (Question, bool)
	Questions() []Question
	Total() int
}

// StaticSource serves a fixed in-memory question list.
type StaticSource struct {
	questions []Question
}

func NewStaticSource(questions []Question) *StaticSource {
	return &StaticSource{questions: questions}
}

func (s *StaticSource) Question(index int) (Question, bool) {
	if index < 0 || index >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[index], true
}

func (s *StaticSource) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *StaticSource) Total() int { return len(s.questions) }

// DefaultQuestions is the built-in set used when no question database is
// configured.
func DefaultQuestions() []Question {
	return []Question{
		{
			Prompt:        "Which planet is known as the Red Planet?",
			Options:       []string{"Venus", "Mars", "Jupiter", "Mercury"},
			CorrectOption: 1,
		},
		{
			Prompt:        "What is the largest ocean on Earth?",
			Options:       []string{"Atlantic", "Indian", "Pacific", "Arctic"},
			CorrectOption: 2,
		},
		{
			Prompt:        "How many continents are there?",
			Options:       []string{"Five", "Six", "Seven", "Eight"},
			CorrectOption: 2,
		},
		{
			Prompt:        "Which element has the chemical symbol O?",
			Options:       []string{"Gold", "Oxygen", "Osmium", "Silver"},
			CorrectOption: 1,
		},
		{
			Prompt:        "What is the capital of Japan?",
			Options:       []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"},
			CorrectOption: 2,
		},
	}
}
