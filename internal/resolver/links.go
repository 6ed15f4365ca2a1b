// internal/resolver/links.go
package resolver

import "fmt"

// Links builds the deep links embedded in notification bodies.
type Links struct {
	BaseURL string
}

func (l Links) Session(classID, sessionID string) string {
	return fmt.Sprintf("%s/courses/%s/mysessions/%s", l.BaseURL, classID, sessionID)
}

func (l Links) Class(classID string) string {
	return fmt.Sprintf("%s/classes/%s", l.BaseURL, classID)
}

func (l Links) Course(classID string) string {
	return fmt.Sprintf("%s/courses/%s", l.BaseURL, classID)
}

func (l Links) Tutor(tutorID string) string {
	return fmt.Sprintf("%s/tutors/%s", l.BaseURL, tutorID)
}

func (l Links) MyClasses() string {
	return fmt.Sprintf("%s/myclasses", l.BaseURL)
}
