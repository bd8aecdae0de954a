package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/app/repository"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/statistics"
	"github.com/codigarte/codigarte/internal/pkg/usercontext"
	"github.com/codigarte/codigarte/internal/pkg/utils"
	"github.com/codigarte/codigarte/internal/pkg/viewmodel"
)

func HandleIndex(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	hasProgress := false
	if uc.IsLoggedIn {
		var progress models.Progress
		err := database.GetDB().Where("user_id = ?", uc.UserID).First(&progress).Error
		hasProgress = err == nil
	}

	stats := statistics.GetStatisticsData()
	layout := viewmodel.Layout{
		Page:          "index",
		FromProtected: uc.IsLoggedIn,
		Username:      uc.Username,
		Premium:       uc.Premium,
		Lives:         uc.Lives,
		OGViewModel: &viewmodel.OpenGraph{
			Title:       "Codigarte - Learn to code",
			Description: "Interactive programming exercises with theory, hints and a built-in terminal.",
			URL:         appConfig.BaseURL,
		},
	}

	return c.Render("index", fiber.Map{
		"Title":       "Learn to code",
		"IsLoggedIn":  uc.IsLoggedIn,
		"HasProgress": hasProgress,
		"Layout":      layout,
		"TotalUsers":  stats.TotalUsers,
		"TotalSolved": stats.TotalSolved,
		"SolvedToday": stats.SolvedToday,
		"Flash":       flash.Get(c),
	})
}

func HandleDashboard(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	var completed int64
	database.GetDB().Model(&models.Progress{}).Where("user_id = ?", uc.UserID).Count(&completed)

	transactions, err := billingService.ListTransactions(uc.UserID)
	if err != nil {
		transactions = nil
	}

	return c.Render("dashboard", fiber.Map{
		"Title":              "Dashboard",
		"IsLoggedIn":         true,
		"Username":           uc.Username,
		"AvatarURL":          utils.GetGravatarURL(user.Email, 200),
		"Lives":              user.Lives,
		"TimeToNextLife":     user.TimeToNextLife(nowUTC(), uc.Premium),
		"Premium":            uc.Premium,
		"CompletedExercises": completed,
		"NewUser":            completed == 0,
		"Transactions":       transactions,
		"Flash":              flash.Get(c),
	})
}

// HandleStartNow routes visitors to the right entry point.
func HandleStartNow(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect("/modules", fiber.StatusSeeOther)
	}
	return c.Redirect("/register", fiber.StatusSeeOther)
}

func HandleTerms(c *fiber.Ctx) error {
	return c.Render("pages/terms", fiber.Map{"Title": "Terms of use", "IsLoggedIn": isLoggedIn(c)})
}

func HandlePrivacy(c *fiber.Ctx) error {
	return c.Render("pages/privacy", fiber.Map{"Title": "Privacy policy", "IsLoggedIn": isLoggedIn(c)})
}

func HandleWithdrawal(c *fiber.Ctx) error {
	return c.Render("pages/withdrawal", fiber.Map{"Title": "Right of withdrawal", "IsLoggedIn": isLoggedIn(c)})
}
