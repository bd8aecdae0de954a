package controllers

import "github.com/codigarte/codigarte/app/models"

// ModuleInfo describes one learning module on the catalog page.
type ModuleInfo struct {
	ID             string
	Name           string
	Description    string
	Icon           string
	TotalExercises int
}

// moduleCatalog is the fixed course structure, grouped by level. Exercises
// live in the database; this is presentation metadata only.
var moduleCatalog = map[string][]ModuleInfo{
	models.LevelBeginner: {
		{
			ID:             "variables_operators",
			Name:           "Variables and Operators",
			Description:    "Learn the basics of programming with variables and math operations",
			Icon:           "fa-calculator",
			TotalExercises: 5,
		},
		{
			ID:             "control_structures",
			Name:           "Control Structures",
			Description:    "Control the flow of your code with conditions and loops",
			Icon:           "fa-sitemap",
			TotalExercises: 5,
		},
	},
	models.LevelIntermediate: {
		{
			ID:             "functions",
			Name:           "Functions",
			Description:    "Learn to create and use functions to organize your code",
			Icon:           "fa-cogs",
			TotalExercises: 5,
		},
		{
			ID:             "arrays_objects",
			Name:           "Arrays and Objects",
			Description:    "Work with lists and objects to store data",
			Icon:           "fa-layer-group",
			TotalExercises: 5,
		},
	},
	models.LevelAdvanced: {
		{
			ID:             "async_programming",
			Name:           "Asynchronous Programming",
			Description:    "Master callbacks, promises and async/await",
			Icon:           "fa-bolt",
			TotalExercises: 5,
		},
		{
			ID:             "dom_manipulation",
			Name:           "DOM Manipulation",
			Description:    "Interact with web pages dynamically",
			Icon:           "fa-window-restore",
			TotalExercises: 5,
		},
	},
}

// catalogLevels fixes the display order of the levels.
var catalogLevels = []string{models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced}

func findModuleInfo(moduleID string) *ModuleInfo {
	for _, level := range catalogLevels {
		for i := range moduleCatalog[level] {
			if moduleCatalog[level][i].ID == moduleID {
				return &moduleCatalog[level][i]
			}
		}
	}
	return nil
}
