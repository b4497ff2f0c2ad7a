package service

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// ShuffleQuestions returns a uniformly shuffled copy of the question list.
// The input slice keeps the authoring order that grading relies on. The
// resulting permutation is pinned on the attempt row at start time and
// replayed on every subsequent fetch, so a learner never sees the order
// change mid-attempt.
func ShuffleQuestions(questions []model.Question) []model.Question {
	shuffled := make([]model.Question, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// QuestionOrderOf projects a shuffled question list onto the id permutation
// stored alongside the attempt.
func QuestionOrderOf(questions []model.Question) []uuid.UUID {
	order := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		order[i] = q.ID
	}
	return order
}

// OrderedQuestions arranges the authored question list per the permutation
// pinned on an attempt and shuffles each question's options with a seed
// derived from (attempt, question), so start and every resume render the
// identical layout without storing option order. Questions missing from the
// permutation (never the case for a well-formed attempt) are skipped.
func OrderedQuestions(questions []model.Question, order []uuid.UUID, attemptID uuid.UUID) []model.Question {
	byID := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := make([]model.Question, 0, len(order))
	for _, id := range order {
		q, ok := byID[id]
		if !ok {
			continue
		}
		q.Options = shuffleOptionsSeeded(q.Options, attemptID, q.ID)
		out = append(out, q)
	}
	return out
}

func shuffleOptionsSeeded(options []model.Option, attemptID, questionID uuid.UUID) []model.Option {
	shuffled := make([]model.Option, len(options))
	copy(shuffled, options)

	s1 := binary.BigEndian.Uint64(attemptID[:8]) ^ binary.BigEndian.Uint64(questionID[:8])
	s2 := binary.BigEndian.Uint64(attemptID[8:]) ^ binary.BigEndian.Uint64(questionID[8:])
	rng := rand.New(rand.NewPCG(s1, s2))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
