package domain

import "strings"

// ReviewLink - разобранная ссылка на merge request.
type ReviewLink struct {
	URL       string
	Workspace string
	Group     string
	Project   string
	Number    int
}

// ProjectPath возвращает путь проекта на код-хостинге.
func (l ReviewLink) ProjectPath() string {
	parts := []string{l.Workspace}
	if l.Group != "" {
		parts = append(parts, l.Group)
	}
	parts = append(parts, l.Project)
	return strings.Join(parts, "/")
}
