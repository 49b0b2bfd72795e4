// Package generate is the deterministic stand-in for the AI content
// pipeline. Identical inputs always produce identical output, which keeps
// the drafting flow reproducible and testable without a model call.
package generate

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/skolahq/skola/internal/course/domain"
)

const (
	modulesPerCourse = 3
	lessonsPerModule = 3
	slidesPerLesson  = 4
	questionsPerQuiz = 2
)

var moduleAspects = []string{
	"Foundations",
	"Core Concepts",
	"Essential Tools",
	"Applied Practice",
	"Common Pitfalls",
	"Advanced Patterns",
	"Real-World Cases",
	"Next Steps",
}

var lessonAngles = []string{
	"Overview",
	"Key Ideas",
	"Step by Step",
	"Worked Example",
	"Hands-On Exercise",
	"Review and Recap",
}

// Structure derives a 3-module, 3-lessons-per-module tree from the
// generation inputs.
func Structure(inputs domain.GenerationInputs) domain.Structure {
	theme := strings.TrimSpace(inputs.Theme)
	offset := seed(inputs)

	modules := make([]domain.Module, 0, modulesPerCourse)
	for m := 0; m < modulesPerCourse; m++ {
		aspect := moduleAspects[(offset+uint64(m))%uint64(len(moduleAspects))]
		module := domain.Module{
			Title: fmt.Sprintf("Module %d: %s of %s", m+1, aspect, theme),
		}
		for l := 0; l < lessonsPerModule; l++ {
			angle := lessonAngles[(offset+uint64(m*lessonsPerModule+l))%uint64(len(lessonAngles))]
			module.Lessons = append(module.Lessons, domain.Lesson{
				Title: fmt.Sprintf("%d.%d %s — %s", m+1, l+1, theme, angle),
			})
		}
		modules = append(modules, module)
	}
	return domain.Structure{Modules: modules}
}

// FullContent expands an approved structure into lesson bodies, video
// scripts, slide placeholders and per-module quizzes.
func FullContent(structure domain.Structure, inputs domain.GenerationInputs) domain.FullContent {
	var content domain.FullContent
	for _, module := range structure.Modules {
		mc := domain.ModuleContent{ModuleTitle: module.Title}
		for _, lesson := range module.Lessons {
			mc.Lessons = append(mc.Lessons, lessonContent(lesson, inputs))
		}
		mc.Quiz = moduleQuiz(module)
		content.Modules = append(content.Modules, mc)
	}
	return content
}

func lessonContent(lesson domain.Lesson, inputs domain.GenerationInputs) domain.LessonContent {
	slides := make([]string, 0, slidesPerLesson)
	for i := 1; i <= slidesPerLesson; i++ {
		slides = append(slides, fmt.Sprintf("Slide %d: %s", i, lesson.Title))
	}
	return domain.LessonContent{
		LessonTitle: lesson.Title,
		Body: fmt.Sprintf(
			"This lesson covers %q for a %s audience at %s level. It introduces the topic, walks through the essential ideas, and closes with a practical takeaway.",
			lesson.Title, inputs.Audience, inputs.Level,
		),
		VideoScript: fmt.Sprintf(
			"[intro] Welcome to %s. [main] We will work through the material in order. [outro] In the next lesson we build on what you learned here.",
			lesson.Title,
		),
		Slides: slides,
	}
}

func moduleQuiz(module domain.Module) []domain.QuizQuestion {
	quiz := make([]domain.QuizQuestion, 0, questionsPerQuiz)
	for i := 1; i <= questionsPerQuiz; i++ {
		quiz = append(quiz, domain.QuizQuestion{
			Prompt: fmt.Sprintf("Question %d: which statement about %q is correct?", i, module.Title),
			Options: []string{
				"It is covered in this module",
				"It is unrelated to this module",
				"It only applies to other courses",
				"None of the above",
			},
			Answer: 0,
		})
	}
	return quiz
}

func seed(inputs domain.GenerationInputs) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d",
		strings.ToLower(strings.TrimSpace(inputs.Theme)),
		strings.ToLower(strings.TrimSpace(inputs.Audience)),
		strings.ToLower(strings.TrimSpace(inputs.Level)),
		strings.ToLower(strings.TrimSpace(inputs.Language)),
		inputs.Hours,
	)
	return h.Sum64()
}
