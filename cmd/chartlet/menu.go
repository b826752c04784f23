package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/resolver"
)

const menuText = `
MENU:
1. Enter Roll No [FAXX-ABC-000]
2. Enter First and Last Roll No to get whole class GPA
3. Exit
`

func menuCmd(app *cliApp) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := &menu{
				app:    app,
				view:   resolver.NewView(app.resolver),
				in:     bufio.NewScanner(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
				outDir: outDir,
			}
			return m.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default ~/MUST_GPA)")
	return cmd
}

// menu is one interactive session. The view holds the latest single-roll
// lookup shown to the user.
type menu struct {
	app    *cliApp
	view   *resolver.View
	in     *bufio.Scanner
	out    io.Writer
	outDir string
}

// run loops until the user exits or input ends.
func (m *menu) run(ctx context.Context) error {
	for {
		_, _ = fmt.Fprint(m.out, menuText)
		choice, ok := m.prompt("Enter your choice (1, 2, or 3): ")
		if !ok {
			return m.in.Err()
		}

		var err error
		switch choice {
		case "1":
			err = m.lookup(ctx)
		case "2":
			err = m.wholeClass(ctx)
		case "3":
			_, _ = fmt.Fprintln(m.out, "Exiting program. Goodbye!")
			return nil
		default:
			_, _ = fmt.Fprintln(m.out, "Invalid choice. Please enter 1, 2, or 3.")
		}
		if err != nil {
			_, _ = fmt.Fprintln(m.out, domerrors.GetUserMessage(err))
		}

		again, ok := m.prompt("\nDo you want to return to the menu? (y/n): ")
		if !ok || !strings.EqualFold(again, "y") {
			return m.in.Err()
		}
	}
}

func (m *menu) prompt(label string) (string, bool) {
	_, _ = fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) lookup(ctx context.Context) error {
	input, ok := m.prompt("Enter roll numbers separated by commas: ")
	if !ok {
		return nil
	}
	refs, err := m.app.batch.List(input)
	if err != nil {
		return err
	}

	var name string
	if len(refs) == 1 {
		st, _ := m.view.Submit(ctx, refs[0].Roll.String())
		m.show(st)
		name = refs[0].Roll.String()
	} else if name, ok = m.prompt("Enter the name for the PDF file: "); !ok {
		return nil
	}

	res, err := m.app.bundle(ctx, m.out, refs, name, m.outDir)
	if err != nil {
		return err
	}
	printBundle(m.out, res)
	return nil
}

func (m *menu) wholeClass(ctx context.Context) error {
	first, ok := m.prompt("Enter the first roll number (FAXX-ABC-000): ")
	if !ok {
		return nil
	}
	last, ok := m.prompt("Enter the last roll number (FAXX-ABC-000): ")
	if !ok {
		return nil
	}
	name, ok := m.prompt("Enter the class name to save the PDF: ")
	if !ok {
		return nil
	}

	refs, err := m.app.batch.Range(first, last)
	if err != nil {
		return err
	}
	res, err := m.app.bundle(ctx, m.out, refs, name, m.outDir)
	if err != nil {
		return err
	}
	printBundle(m.out, res)
	return nil
}

// show prints the view state for a single-roll lookup.
func (m *menu) show(st resolver.ViewState) {
	switch st.Status {
	case resolver.StatusAvailable:
		_, _ = fmt.Fprintf(m.out, "%s: chart available\n%s\n", st.RollNumber, st.ChartURL)
	case resolver.StatusMissing:
		_, _ = fmt.Fprintf(m.out, "%s: %s\n", st.RollNumber, st.Message)
	default:
		_, _ = fmt.Fprintln(m.out, st.Message)
	}
}
