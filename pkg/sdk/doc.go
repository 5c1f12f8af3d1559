// Package courses is an in-process Go client for the course-review catalog.
// It runs the same use cases as the HTTP service directly against the store.
//
//	client, _ := courses.New(ctx, courses.WithValkey("localhost:6379", ""))
//	defer client.Close()
//
//	_, _ = client.CreateCourse(ctx, courses.CourseInput{
//	    Name: "Discrete Math", Code: "CSDS101", CreatedBy: "u1",
//	})
//	review, _ := client.AddReview(ctx, "Discrete Math", "CSDS101", courses.ReviewInput{
//	    CreatedBy: "u2", Overall: 8, Difficulty: 6, Usefulness: 9, Professor: "Dr. Smith",
//	})
//	hits, _ := client.Search(ctx, "discrete")
package courses
