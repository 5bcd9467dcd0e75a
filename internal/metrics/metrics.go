package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizduel_matches_created_total",
		Help: "Matches successfully created.",
	})

	MatchesJoined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizduel_matches_joined_total",
		Help: "Successful second-player joins.",
	})

	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizduel_answers_submitted_total",
		Help: "Answer submissions, labelled by correctness.",
	}, []string{"correct"})

	RoundsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizduel_rounds_advanced_total",
		Help: "Round advancement writes issued.",
	})

	MatchesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizduel_matches_finished_total",
		Help: "Matches marked finished after the last round.",
	})

	RoomCodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizduel_room_code_collisions_total",
		Help: "Room code allocations retried after a collision.",
	})

	MatchesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizduel_matches_swept_total",
		Help: "Stale match documents deleted by the janitor.",
	})
)

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
