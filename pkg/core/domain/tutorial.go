package domain

import "time"

// TutorialKeyPrefix namespaces onboarding flags by feature name.
const TutorialKeyPrefix = "editor-cms-tutorial-completed-"

// TutorialState is the onboarding completion flag of one feature.
type TutorialState struct {
	Feature     string     `json:"feature"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func TutorialKey(feature string) string {
	return TutorialKeyPrefix + feature
}
