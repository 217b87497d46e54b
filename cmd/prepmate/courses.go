package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pavelanni/prepmate/internal/generation"
	appI18n "github.com/pavelanni/prepmate/internal/i18n"
	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/store"
)

func coursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses and their generation status",
		RunE:  runCourses,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("owner", "", "Only list courses of this username")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export courses as JSON",
		RunE:  runExport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("owner", "", "Only export courses of this username (default all)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

// ownerID resolves an optional username flag; an empty name means every owner.
func ownerID(ctx context.Context, db *store.Store, username string) (int64, error) {
	if username == "" {
		return 0, nil
	}
	u, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("find owner %q: %w", username, err)
	}
	return u.ID, nil
}

func runCourses(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	owner, err := ownerID(ctx, db, v.GetString("owner"))
	if err != nil {
		return err
	}
	var courses []model.Course
	if owner != 0 {
		courses, err = db.ListCoursesByOwner(ctx, owner)
	} else {
		courses, err = db.ListCourses(ctx)
	}
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}

	rows := make([][]string, 0, len(courses))
	for _, c := range courses {
		chapters := 0
		if p := c.Content.ParsedContent; p != nil {
			chapters = len(p.Chapters)
		}
		rows = append(rows, []string{
			c.ID,
			c.Title,
			string(c.Difficulty),
			string(c.Content.Status),
			strconv.Itoa(chapters),
			humanize.Time(c.CreatedAt),
		})
	}
	fmt.Println(renderTable(
		[]string{"ID", "Topic", "Difficulty", "Status", "Chapters", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		appI18n.Tp(ctx, "CoursesListed", len(courses)),
	))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	owner, err := ownerID(ctx, db, v.GetString("owner"))
	if err != nil {
		return err
	}
	export, err := db.ExportCourses(ctx, owner)
	if err != nil {
		return fmt.Errorf("export courses: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func printProgress(_ context.Context, u generation.Update) error {
	fmt.Fprintf(os.Stderr, "  %3d%%  %s\n", u.Progress, u.Status)
	if n := u.Notification; n != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Description)
	}
	return nil
}

func printCourse(c model.Course) {
	fmt.Printf("%s\n\n%s\n", c.Title, c.Summary)
	if t := chapterTable(c); t != "" {
		fmt.Println(t)
	}
}

// chapterTable lists the chapters of a parsed course with their length in characters.
func chapterTable(c model.Course) string {
	p := c.Content.ParsedContent
	if p == nil {
		return ""
	}
	rows := make([][]string, 0, len(p.Chapters))
	for _, ch := range p.Chapters {
		rows = append(rows, []string{strconv.Itoa(ch.OrderNumber), ch.Title, humanize.Comma(int64(utf8.RuneCountInString(ch.Content)))})
	}
	return renderTable(
		[]string{"#", "Chapter", "Chars"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight},
		fmt.Sprintf("%d flashcards, %d MCQs, %d Q&A pairs", len(p.Flashcards), len(p.MCQs), len(p.QnAs)),
	)
}
