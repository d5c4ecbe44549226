package github

import (
	"strings"

	"github.com/ajitpratap0/tech-tracker/internal/models"
)

var curated = map[string][]models.Resource{
	"react": {
		{Type: models.ResourceDocumentation, Title: "React Official Docs", Description: "Официальная документация React", URL: "https://react.dev"},
		{Type: models.ResourceCourse, Title: "React Course - Scrimba", Description: "Интерактивный курс React", URL: "https://scrimba.com/learn/learnreact"},
	},
	"javascript": {
		{Type: models.ResourceDocumentation, Title: "MDN Web Docs", Description: "Полная документация JavaScript", URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript"},
		{Type: models.ResourceBook, Title: "Eloquent JavaScript", Description: "Отличная книга по JavaScript", URL: "https://eloquentjavascript.net/"},
	},
	"typescript": {
		{Type: models.ResourceDocumentation, Title: "TypeScript Official Docs", Description: "Официальная документация TypeScript", URL: "https://www.typescriptlang.org/docs/"},
	},
	"python": {
		{Type: models.ResourceDocumentation, Title: "Python Official Docs", Description: "Официальная документация Python", URL: "https://docs.python.org/"},
	},
}

// CuratedResources returns the built-in resources for technology, if any.
func CuratedResources(technology string) []models.Resource {
	list := curated[strings.ToLower(strings.TrimSpace(technology))]
	out := make([]models.Resource, len(list))
	copy(out, list)
	return out
}
