package main

import (
	"encoding/json"
	"log"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()

	db := database.GetDB()

	added := 0
	for _, e := range catalog() {
		var existing models.Exercise
		if err := db.Where("question = ?", e.Question).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&e).Error; err != nil {
			log.Fatalf("seeding %q failed: %v", e.Question, err)
		}
		added++
	}

	var total int64
	db.Model(&models.Exercise{}).Count(&total)
	log.Printf("Seed complete: %d exercises added, %d total", added, total)
}

func options(opts ...string) string {
	data, _ := json.Marshal(opts)
	return string(data)
}

func catalog() []models.Exercise {
	return []models.Exercise{
		// variables_operators
		{
			Question:      `What will console.log("10" + 5) output?`,
			SampleCode:    `console.log("10" + 5);`,
			CorrectAnswer: "105",
			Level:         models.LevelBeginner,
			Theory:        `<p>The <code>+</code> operator with a string and a number performs concatenation. The number is converted to a string and the two are joined.</p>`,
			Type:          models.ExerciseTypeOutput,
			Module:        "variables_operators",
			OrderInModule: 1,
			Hint:          "Think about what happens when a string meets a number.",
		},
		{
			Question:      `How do you check whether a variable "age" is greater than or equal to 18?`,
			SampleCode:    "let age = 20;\nif (age ___ 18) {\n  console.log(\"Adult\");\n}",
			CorrectAnswer: ">=",
			Level:         models.LevelBeginner,
			Theory:        `<p>The <code>&gt;=</code> operator checks whether the left value is greater than or equal to the right value.</p>`,
			Type:          models.ExerciseTypeCompletion,
			Module:        "variables_operators",
			OrderInModule: 2,
		},
		{
			Question:      `Which method converts a string into an integer?`,
			SampleCode:    "let number = ___(\"42\");\nconsole.log(number); // 42",
			CorrectAnswer: "parseInt",
			Level:         models.LevelBeginner,
			Theory:        `<p>The <code>parseInt()</code> method converts a string into an integer. It stops reading when it finds a non-numeric character.</p>`,
			Type:          models.ExerciseTypeCompletion,
			Module:        "variables_operators",
			OrderInModule: 3,
		},
		{
			Question:      `What is the difference between == and === in JavaScript?`,
			CorrectAnswer: "== compares value, === compares value and type",
			Level:         models.LevelIntermediate,
			Theory:        `<p>The <code>==</code> operator performs type coercion before comparing, while <code>===</code> does no conversion and requires both value AND type to match.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"== compares value, === compares value and type",
				"== compares type, === compares value",
				"There is no difference",
				"== is faster than ===",
			),
			Module:         "variables_operators",
			OrderInModule:  4,
			FinalChallenge: true,
		},

		// control_structures
		{
			Question:      `What will console.log(10 % 3) output?`,
			SampleCode:    `console.log(10 % 3);`,
			CorrectAnswer: "1",
			Level:         models.LevelBeginner,
			Theory:        `<p>The <code>%</code> operator returns the remainder of a division. 10 divided by 3 is 3 with a remainder of 1.</p>`,
			Type:          models.ExerciseTypeOutput,
			Module:        "control_structures",
			OrderInModule: 1,
		},
		{
			Question:      `Which keyword exits a loop early?`,
			SampleCode:    "for (let i = 0; i < 10; i++) {\n  if (i === 5) ___;\n}",
			CorrectAnswer: "break",
			Level:         models.LevelBeginner,
			Theory:        `<p>The <code>break</code> statement terminates the current loop immediately. Its sibling <code>continue</code> only skips the current iteration.</p>`,
			Type:          models.ExerciseTypeCompletion,
			Module:        "control_structures",
			OrderInModule: 2,
		},
		{
			Question:       `Which loop always runs its body at least once?`,
			CorrectAnswer:  "do...while",
			Level:          models.LevelBeginner,
			Theory:         `<p>A <code>do...while</code> loop evaluates its condition after the body, so the body runs at least once regardless of the condition.</p>`,
			Type:           models.ExerciseTypeMultipleChoice,
			OptionsJSON:    options("do...while", "while", "for", "for...of"),
			Module:         "control_structures",
			OrderInModule:  3,
			FinalChallenge: true,
		},

		// functions
		{
			Question:      `What is the difference between call, apply and bind?`,
			SampleCode:    "function greet(period, name) {\n  console.log(`Good ${period}, ${name}!`);\n}",
			CorrectAnswer: "call and apply execute now, bind returns a function",
			Level:         models.LevelAdvanced,
			Theory:        `<p>All three set the value of <code>this</code> in a function. <code>call()</code> takes separate arguments, <code>apply()</code> takes an array of arguments, and <code>bind()</code> returns a new function with <code>this</code> fixed, without executing it.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"call and apply execute now, bind returns a function",
				"All three execute the function immediately",
				"bind is faster than call and apply",
				"There is no practical difference",
			),
			Premium:       true,
			Module:        "functions",
			OrderInModule: 1,
		},
		{
			Question:      `What is a closure in JavaScript?`,
			SampleCode:    "function makeCounter() {\n  let count = 0;\n  return function() {\n    count++;\n    return count;\n  };\n}",
			CorrectAnswer: "A function that remembers the scope it was created in",
			Level:         models.LevelAdvanced,
			Theory:        `<p>A closure is a function that keeps access to variables from an outer scope even after that scope has left the call stack. This enables functions with private state.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"A function that remembers the scope it was created in",
				"A function that closes other functions",
				"A method for closing windows",
				"A kind of infinite loop",
			),
			Premium:       true,
			Module:        "functions",
			OrderInModule: 2,
		},
		{
			Question:      `What is currying in JavaScript?`,
			SampleCode:    "function add(a) {\n  return function(b) {\n    return a + b;\n  };\n}",
			CorrectAnswer: "Turning a multi-argument function into a chain of single-argument functions",
			Level:         models.LevelAdvanced,
			Theory:        `<p>Currying is a functional technique where a function with multiple arguments is transformed into a sequence of functions, each taking a single argument. It enables function composition and partial application.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"Turning a multi-argument function into a chain of single-argument functions",
				"A method for cooking data",
				"A loop type for arrays",
				"A design pattern for objects",
			),
			Premium:        true,
			Module:         "functions",
			OrderInModule:  3,
			FinalChallenge: true,
		},

		// arrays_objects
		{
			Question:      `How do you access the first element of an array called "fruits"?`,
			SampleCode:    "let fruits = [\"apple\", \"banana\", \"orange\"];\nlet first = fruits[___];",
			CorrectAnswer: "0",
			Level:         models.LevelBeginner,
			Theory:        `<p>Arrays in JavaScript are zero-indexed. The first element is at position 0, the second at 1, and so on.</p>`,
			Type:          models.ExerciseTypeCompletion,
			Module:        "arrays_objects",
			OrderInModule: 1,
		},
		{
			Question:      `Which method adds an element to the end of an array?`,
			SampleCode:    "let numbers = [1, 2, 3];\nnumbers.___(4);\n// numbers is now [1, 2, 3, 4]",
			CorrectAnswer: "push",
			Level:         models.LevelBeginner,
			Theory:        `<p>The <code>push()</code> method adds one or more elements to the end of an array and returns the new length.</p>`,
			Type:          models.ExerciseTypeCompletion,
			Module:        "arrays_objects",
			OrderInModule: 2,
		},
		{
			Question:      `Which method turns an array into a string?`,
			SampleCode:    "let fruits = [\"apple\", \"banana\"];\nlet result = fruits.___(\",\");\n// result: \"apple,banana\"",
			CorrectAnswer: "join",
			Level:         models.LevelIntermediate,
			Theory:        `<p>The <code>join()</code> method joins all elements of an array into a string, using the given separator.</p>`,
			Type:          models.ExerciseTypeCompletion,
			Module:        "arrays_objects",
			OrderInModule: 3,
		},
		{
			Question:      `How do you create an empty object in JavaScript?`,
			CorrectAnswer: "let obj = {};",
			Level:         models.LevelBeginner,
			Theory:        `<p>Objects can be created with curly braces <code>{}</code>. This object literal syntax is the most common way of creating objects.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"let obj = {};",
				"let obj = [];",
				"let obj = new Object;",
				"let obj = Object.create();",
			),
			Module:         "arrays_objects",
			OrderInModule:  4,
			FinalChallenge: true,
		},

		// async_programming
		{
			Question:      `How does the event loop order this output?`,
			SampleCode:    "console.log(\"1\");\nsetTimeout(() => console.log(\"2\"), 0);\nconsole.log(\"3\");\n// What is the output order?",
			CorrectAnswer: "1, 3, 2",
			Level:         models.LevelAdvanced,
			Theory:        `<p>The event loop is what makes JavaScript asynchronous. It manages the call stack, task queue and microtask queue. Synchronous code runs first, then microtasks (Promises), and finally macrotasks (setTimeout).</p>`,
			Type:          models.ExerciseTypeOutput,
			Premium:       true,
			Module:        "async_programming",
			OrderInModule: 1,
		},
		{
			Question:      `How does async/await work under the hood?`,
			SampleCode:    "async function fetchData() {\n  const response = await fetch(url);\n  const data = await response.json();\n  return data;\n}",
			CorrectAnswer: "Syntax sugar over Promises",
			Level:         models.LevelAdvanced,
			Theory:        `<p>Async/await is syntax sugar over Promises that makes asynchronous code more readable. An async function always returns a Promise, and await pauses execution until the Promise resolves, without blocking the main thread.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"Syntax sugar over Promises",
				"A new kind of thread",
				"An improved synchronous method",
				"A replacement for callbacks",
			),
			Premium:       true,
			Module:        "async_programming",
			OrderInModule: 2,
		},
		{
			Question:      `What are generators and how do they work?`,
			SampleCode:    "function* infiniteCounter() {\n  let i = 0;\n  while (true) {\n    yield i++;\n  }\n}",
			CorrectAnswer: "Functions that can be paused and resumed",
			Level:         models.LevelAdvanced,
			Theory:        `<p>Generators are special functions that can be paused and resumed. They use the <code>yield</code> keyword to return multiple values over time. They are useful for lazy evaluation, custom iterators and asynchronous control flow.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"Functions that can be paused and resumed",
				"Functions that generate random numbers",
				"A method for creating arrays",
				"A loop type for objects",
			),
			Premium:        true,
			Module:         "async_programming",
			OrderInModule:  3,
			FinalChallenge: true,
		},

		// dom_manipulation
		{
			Question:      `How does the Web Workers API enable multi-threading?`,
			SampleCode:    "// main.js\nconst worker = new Worker(\"worker.js\");\nworker.postMessage(\"Hello\");",
			CorrectAnswer: "Runs JavaScript code in a separate thread",
			Level:         models.LevelAdvanced,
			Theory:        `<p>Web Workers run JavaScript in background threads, separate from the main UI thread. This avoids blocking the interface during heavy work. Workers talk to the main thread via messages.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"Runs JavaScript code in a separate thread",
				"Works with Web elements",
				"A method for creating servers",
				"An API for working with files",
			),
			Premium:       true,
			Module:        "dom_manipulation",
			OrderInModule: 1,
		},
		{
			Question:      `How does the prototype chain work in JavaScript?`,
			SampleCode:    "function Animal(name) {\n  this.name = name;\n}\nAnimal.prototype.speak = function() {\n  console.log(this.name + \" makes a sound\");\n};",
			CorrectAnswer: "An inheritance mechanism based on prototypes",
			Level:         models.LevelAdvanced,
			Theory:        `<p>JavaScript uses prototypal inheritance. Every object has an internal prototype which may have its own prototype, forming a chain. When a property is not found on an object, lookup walks up the prototype chain.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"An inheritance mechanism based on prototypes",
				"A special kind of array",
				"A method for cloning objects",
				"A versioning system",
			),
			Premium:       true,
			Module:        "dom_manipulation",
			OrderInModule: 2,
		},
		{
			Question:      `How does memoization improve performance?`,
			SampleCode:    "function memoize(fn) {\n  const cache = {};\n  return function(...args) {\n    const key = JSON.stringify(args);\n    if (cache[key]) return cache[key];\n    return cache[key] = fn.apply(this, args);\n  };\n}",
			CorrectAnswer: "Caches results of expensive functions",
			Level:         models.LevelAdvanced,
			Theory:        `<p>Memoization stores the results of expensive function calls and returns the cached result when the same inputs occur again. It is especially effective for recursive or computation-heavy functions.</p>`,
			Type:          models.ExerciseTypeMultipleChoice,
			OptionsJSON: options(
				"Caches results of expensive functions",
				"A technique for memorizing code",
				"A data compression method",
				"A pattern for managing memory",
			),
			Premium:        true,
			Module:         "dom_manipulation",
			OrderInModule:  3,
			FinalChallenge: true,
		},
	}
}
