package interview

import (
	"fmt"

	"github.com/pavelanni/prepmate/internal/model"
)

const (
	// RecommendCourse suggests generating a course on a topic.
	RecommendCourse = "course"
	// RecommendPractice suggests another mock interview.
	RecommendPractice = "practice"

	maxCourseRecommendations = 3
	practiceBelow            = 70
)

// Recommend suggests a course per tech stack entry and, for a weak overall rating,
// further interview practice.
func Recommend(iv model.Interview, rating int) []model.Recommendation {
	recs := []model.Recommendation{}
	for _, item := range iv.TechStackItems() {
		if len(recs) == maxCourseRecommendations {
			break
		}
		recs = append(recs, model.Recommendation{
			Type:   RecommendCourse,
			Title:  "Advanced " + item,
			Reason: fmt.Sprintf("To deepen your %s knowledge for %s interviews", item, iv.JobRole),
		})
	}
	if rating < practiceBelow {
		recs = append(recs, model.Recommendation{
			Type:   RecommendPractice,
			Title:  "Technical Communication Skills",
			Reason: "To work on more precise and concise communication of technical concepts",
		})
	}
	return recs
}
