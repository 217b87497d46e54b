package main

import (
	"strings"
	"testing"
	"time"

	"github.com/pavelanni/prepmate/internal/model"
)

func TestChapterTableCountsCharacters(t *testing.T) {
	c := model.Course{Content: model.CompleteContent("", time.Now(), model.ParsedContent{
		Chapters: []model.Chapter{{Title: "Привет", Content: "ééé", OrderNumber: 1}},
	})}
	out := chapterTable(c)
	var row string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Привет") {
			row = line
		}
	}
	if !strings.Contains(row, " 3 ") {
		t.Errorf("expected a length of 3 characters, got row %q", row)
	}
	if chapterTable(model.Course{}) != "" {
		t.Error("expected no table for an unparsed course")
	}
}
