package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/prepmate/internal/model"
)

// ExportCourses builds an export of every course owned by ownerID, or of all courses
// when ownerID is 0. Courses still generating are included with empty sections.
func (s *Store) ExportCourses(ctx context.Context, ownerID int64) (model.CourseExport, error) {
	var courses []model.Course
	var err error
	owner := "all"
	if ownerID != 0 {
		u, uerr := s.GetUserByID(ctx, ownerID)
		if uerr != nil {
			return model.CourseExport{}, fmt.Errorf("get owner %d: %w", ownerID, uerr)
		}
		owner = u.Username
		courses, err = s.ListCoursesByOwner(ctx, ownerID)
	} else {
		courses, err = s.ListCourses(ctx)
	}
	if err != nil {
		return model.CourseExport{}, err
	}

	export := model.CourseExport{
		ExportedAt: s.now(),
		Owner:      owner,
		Courses:    make([]model.CourseDocument, 0, len(courses)),
	}
	for _, c := range courses {
		export.Courses = append(export.Courses, model.DocumentFromCourse(c))
	}
	return export, nil
}
