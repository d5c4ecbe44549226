package catalog

import "github.com/ajitpratap0/tech-tracker/internal/models"

// DefaultSeed returns the built-in catalog used when nothing is persisted.
func DefaultSeed() []models.Technology {
	seed := []struct {
		title, description string
	}{
		{"React Components", "Изучение базовых компонентов, функциональные и классовые компоненты"},
		{"JSX Syntax", "Освоение синтаксиса JSX, встраивание JavaScript выражений"},
		{"State Management", "Работа с состоянием компонентов, useState хук"},
		{"Props и PropTypes", "Передача данных между компонентами через props"},
		{"Lifecycle Methods", "Жизненный цикл компонентов, useEffect хук"},
		{"React Router", "Маршрутизация в приложении, навигация между страницами"},
		{"Context API", "Глобальное управление состоянием с помощью Context API"},
		{"Custom Hooks", "Создание собственных хуков для переиспользования логики"},
	}
	out := make([]models.Technology, len(seed))
	for i, s := range seed {
		out[i] = models.Technology{
			ID:          int64(i + 1),
			Title:       s.title,
			Description: s.description,
			Status:      models.StatusNotStarted,
			Notes:       "",
			Category:    models.DefaultCategory,
		}
	}
	return out
}
