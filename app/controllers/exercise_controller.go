package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/app/repository"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/metrics/counter"
	"github.com/codigarte/codigarte/internal/pkg/usercontext"
	"github.com/codigarte/codigarte/internal/pkg/utils"
)

func HandleModules(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	type moduleProgress struct {
		ModuleInfo
		CompletedExercises int64
		Completed          bool
		ProgressPercent    int
	}

	withProgress := make(map[string][]moduleProgress, len(catalogLevels))
	for _, level := range catalogLevels {
		for _, info := range moduleCatalog[level] {
			total, err := repos.Exercise.CountByModule(info.ID)
			if err != nil {
				return err
			}
			completed, err := repos.Progress.CountCompletedInModule(uc.UserID, info.ID)
			if err != nil {
				return err
			}
			done, err := repos.Progress.IsModuleCompleted(uc.UserID, info.ID)
			if err != nil {
				return err
			}

			percent := 0
			if total > 0 {
				percent = int(completed * 100 / total)
			}
			withProgress[level] = append(withProgress[level], moduleProgress{
				ModuleInfo:         info,
				CompletedExercises: completed,
				Completed:          done,
				ProgressPercent:    percent,
			})
		}
	}

	return c.Render("exercises/modules", fiber.Map{
		"Title":      "Modules",
		"IsLoggedIn": true,
		"Levels":     catalogLevels,
		"Modules":    withProgress,
		"Premium":    uc.Premium,
	})
}

func HandleModuleDetail(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	moduleID := c.Params("id")

	info := findModuleInfo(moduleID)
	if info == nil {
		return c.Redirect("/modules", fiber.StatusSeeOther)
	}

	repos := repository.GetGlobalRepositories()
	exercises, err := repos.Exercise.ListByModule(moduleID)
	if err != nil {
		return err
	}
	completedIDs, err := repos.Progress.CompletedExerciseIDs(uc.UserID)
	if err != nil {
		return err
	}

	type exerciseProgress struct {
		Exercise  models.Exercise
		Completed bool
	}
	progress := make([]exerciseProgress, 0, len(exercises))
	for _, ex := range exercises {
		progress = append(progress, exerciseProgress{
			Exercise:  ex,
			Completed: completedIDs[ex.ID],
		})
	}

	return c.Render("exercises/module_detail", fiber.Map{
		"Title":      info.Name,
		"IsLoggedIn": true,
		"Module":     info,
		"Progress":   progress,
		"Premium":    uc.Premium,
	})
}

func HandleExerciseList(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	timeToNext := user.TimeToNextLife(nowUTC(), uc.Premium)
	if outOfLives(user, uc.Premium) {
		return c.Render("exercises/out_of_lives", fiber.Map{
			"Title":          "Out of lives",
			"IsLoggedIn":     true,
			"TimeToNextLife": timeToNext,
		})
	}

	db := database.GetDB()
	var exercises []models.Exercise
	if uc.Premium {
		err = db.Order("module ASC, order_in_module ASC").Find(&exercises).Error
	} else {
		err = db.Where("premium = ?", false).Order("module ASC, order_in_module ASC").Find(&exercises).Error
	}
	if err != nil {
		return err
	}

	completedIDs, err := repository.GetGlobalRepositories().Progress.CompletedExerciseIDs(uc.UserID)
	if err != nil {
		return err
	}

	return c.Render("exercises/list", fiber.Map{
		"Title":          "Exercises",
		"IsLoggedIn":     true,
		"Exercises":      exercises,
		"CompletedIDs":   completedIDs,
		"Lives":          user.Lives,
		"TimeToNextLife": timeToNext,
		"Premium":        uc.Premium,
	})
}

func HandleExerciseDetail(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	timeToNext := user.TimeToNextLife(nowUTC(), uc.Premium)
	if outOfLives(user, uc.Premium) {
		return c.Render("exercises/out_of_lives", fiber.Map{
			"Title":          "Out of lives",
			"IsLoggedIn":     true,
			"TimeToNextLife": timeToNext,
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Redirect("/modules", fiber.StatusSeeOther)
	}
	exercise, err := repository.GetGlobalRepositories().Exercise.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("pages/404", fiber.Map{"Title": "Not found"})
	}

	if exercise.Premium && !uc.Premium {
		return c.Render("exercises/premium_content", fiber.Map{
			"Title":      "Premium content",
			"IsLoggedIn": true,
		})
	}

	return c.Render("exercises/detail", fiber.Map{
		"Title":          "Exercise",
		"IsLoggedIn":     true,
		"Exercise":       exercise,
		"Theory":         utils.ProcessHTMLContent(exercise.Theory),
		"Options":        exercise.Options(),
		"Lives":          user.Lives,
		"TimeToNextLife": timeToNext,
		"Premium":        uc.Premium,
	})
}

// HandleCheckAnswer grades a submission. A wrong answer on a not-yet-solved
// exercise costs a life: a purchased life when any remain, otherwise a free
// life for non-premium users. Solving a final challenge completes its module.
func HandleCheckAnswer(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	var payload struct {
		ExerciseID uint   `json:"exercise_id"`
		Answer     string `json:"answer"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid request body"})
	}

	repos := repository.GetGlobalRepositories()
	exercise, err := repos.Exercise.GetByID(payload.ExerciseID)
	if err != nil {
		return c.JSON(fiber.Map{"success": false, "error": "exercise not found"})
	}
	user, err := repos.User.GetByID(uc.UserID)
	if err != nil {
		return c.JSON(fiber.Map{"success": false, "error": "user not found"})
	}

	terminalOutput := simulateTerminal(exercise, payload.Answer)

	if err := counter.AddExerciseAttempt(exercise.ID); err != nil {
		log.Warnf("[Exercise] attempt counter failed: %v", err)
	}

	existing, err := repos.Progress.GetByUserAndExercise(uc.UserID, exercise.ID)
	solvedBefore := err == nil

	if exercise.CheckAnswer(payload.Answer) {
		if !solvedBefore {
			if err := counter.AddExerciseSolve(exercise.ID); err != nil {
				log.Warnf("[Exercise] solve counter failed: %v", err)
			}
		}
		if solvedBefore {
			existing.Attempts++
			if err := repos.Progress.Save(existing); err != nil {
				return err
			}
		} else {
			if err := repos.Progress.Save(&models.Progress{UserID: uc.UserID, ExerciseID: exercise.ID, Attempts: 1}); err != nil {
				return err
			}
		}

		if exercise.FinalChallenge {
			if err := repos.Progress.MarkModuleCompleted(uc.UserID, exercise.Module); err != nil {
				return err
			}
		}

		return c.JSON(fiber.Map{
			"success":          true,
			"correct":          true,
			"feedback":         "Congratulations! Correct answer!",
			"lives_remaining":  user.Lives,
			"terminal_output":  terminalOutput,
			"final_challenge":  exercise.FinalChallenge,
			"module_completed": exercise.FinalChallenge,
		})
	}

	// Wrong answer.
	if solvedBefore {
		existing.Attempts++
		if err := repos.Progress.Save(existing); err != nil {
			return err
		}
	} else {
		if err := consumeLife(user, uc.Premium); err != nil {
			return err
		}
	}

	if outOfLives(user, uc.Premium) {
		return c.JSON(fiber.Map{
			"success":         true,
			"correct":         false,
			"out_of_lives":    true,
			"feedback":        "You ran out of lives! Wait for them to regenerate.",
			"lives_remaining": 0,
			"terminal_output": terminalOutput,
		})
	}

	feedback := "Incorrect answer. Try again!"
	if uc.Premium {
		feedback += " (Premium: unlimited lives!)"
	} else {
		feedback += fmt.Sprintf(" Lives remaining: %d", user.Lives)
	}

	response := fiber.Map{
		"success":         true,
		"correct":         false,
		"lives_remaining": user.Lives,
		"feedback":        feedback,
		"terminal_output": terminalOutput,
	}
	if exercise.Hint != "" {
		response["hint"] = exercise.Hint
	}
	return c.JSON(response)
}

// consumeLife burns one life for a wrong answer. Purchased lives go first and
// their use is booked onto the oldest open lives package so a later refund
// prorates over what is actually left.
func consumeLife(user *models.User, premium bool) error {
	if user.UnusedPurchasedLives() > 0 {
		user.UsePurchasedLife()
		registerPackageLifeUse(user.ID)
	} else if !premium {
		user.Lives--
		if user.Lives < 0 {
			user.Lives = 0
		}
	}
	return database.GetDB().Save(user).Error
}

// registerPackageLifeUse books one consumed life onto the oldest confirmed
// lives package that still has unused quantity.
func registerPackageLifeUse(userID uint) {
	db := database.GetDB()
	var txns []models.Transaction
	err := db.Where("user_id = ? AND status = ? AND kind LIKE ?",
		userID, models.TransactionStatusConfirmed, "lives_%").
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		log.Warnf("[Exercises] Could not load lives packages for user %d: %v", userID, err)
		return
	}
	for i := range txns {
		if txns[i].RegisterLifeUse() {
			if err := db.Save(&txns[i]).Error; err != nil {
				log.Warnf("[Exercises] Could not record life use on %s: %v", txns[i].PublicID, err)
			}
			return
		}
	}
}

func outOfLives(user *models.User, premium bool) bool {
	return user.Lives <= 0 && !premium && user.UnusedPurchasedLives() <= 0
}

func HandleNextExercise(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Redirect("/modules", fiber.StatusSeeOther)
	}

	repos := repository.GetGlobalRepositories()
	current, err := repos.Exercise.GetByID(uint(id))
	if err != nil {
		return c.Redirect("/modules", fiber.StatusSeeOther)
	}

	next, err := repos.Exercise.NextInModule(current.Module, current.OrderInModule)
	if err != nil {
		if current.Module != "" {
			return c.Redirect("/module/"+current.Module, fiber.StatusSeeOther)
		}
		return c.Redirect("/modules", fiber.StatusSeeOther)
	}

	if next.Premium && !uc.Premium {
		return c.Render("exercises/premium_content", fiber.Map{
			"Title":      "Premium content",
			"IsLoggedIn": true,
		})
	}
	return c.Redirect(fmt.Sprintf("/exercise/%d", next.ID), fiber.StatusSeeOther)
}

// HandleLivesStatus reports the current life pool for the page timer.
func HandleLivesStatus(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "user not found"})
	}

	timeToNext := 0
	if !uc.Premium {
		timeToNext = user.TimeToNextLife(nowUTC(), false)
	}

	return c.JSON(fiber.Map{
		"lives":          user.Lives,
		"time_remaining": timeToNext,
		"time_formatted": formatCountdown(timeToNext),
		"premium":        uc.Premium,
	})
}

func formatCountdown(seconds int) string {
	if seconds <= 0 {
		return "Ready!"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func HandlePremiumContent(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	if !uc.Premium {
		return c.Render("exercises/premium_content", fiber.Map{
			"Title":      "Premium content",
			"IsLoggedIn": true,
		})
	}

	db := database.GetDB()
	var exercises []models.Exercise
	if err := db.Where("premium = ?", true).Order("module ASC, order_in_module ASC").Find(&exercises).Error; err != nil {
		return err
	}
	completedIDs, err := repository.GetGlobalRepositories().Progress.CompletedExerciseIDs(uc.UserID)
	if err != nil {
		return err
	}

	return c.Render("exercises/premium_exclusive", fiber.Map{
		"Title":        "Premium exercises",
		"IsLoggedIn":   true,
		"Exercises":    exercises,
		"CompletedIDs": completedIDs,
	})
}

// simulateTerminal fakes a terminal run of the submitted snippet for the
// exercise page. Output exercises get a canned result for the known snippets;
// completion exercises echo the filled-in code.
func simulateTerminal(exercise *models.Exercise, answer string) string {
	switch exercise.Type {
	case models.ExerciseTypeOutput:
		code := strings.ReplaceAll(exercise.SampleCode, "___", answer)
		switch {
		case strings.Contains(code, "console.log(5 + 3)"):
			return "8"
		case strings.Contains(code, "console.log(10 % 3)"):
			return "1"
		case strings.Contains(code, "age") && strings.Contains(answer, "+"):
			return "25"
		default:
			return "Program ran successfully!"
		}
	case models.ExerciseTypeCompletion:
		code := strings.ReplaceAll(exercise.SampleCode, "___", "["+answer+"]")
		return fmt.Sprintf("Code executed:\n%s\nNo errors!", code)
	}
	return "Execution finished successfully!"
}
