package models

// Student is an enrolled student. CourseID is a weak reference.
type Student struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ParentName     string `json:"parentName"`
	RollNumber     string `json:"rollNumber"`
	CourseID       string `json:"courseId"`
	Branch         string `json:"branch"`
	Semester       string `json:"semester"`
	SessionID      string `json:"sessionId"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	EnrollmentDate string `json:"enrollmentDate"`
}
