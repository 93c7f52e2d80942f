package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/session"
)

type tasksModel struct {
	machine *session.Machine
	screen  *Screen
	width   int
	height  int

	cursor int

	formActive bool
	form       *huh.Form
	formName   *string // pointer survives value copies
}

func newTasksModel(m *session.Machine, s *Screen) tasksModel {
	name := ""
	return tasksModel{machine: m, screen: s, formName: &name}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	tasks := t.screen.tasks

	switch {
	case key.Matches(kmsg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(kmsg, keys.Down):
		if t.cursor < len(tasks)-1 {
			t.cursor++
		}
	case key.Matches(kmsg, keys.Enter):
		if t.cursor < len(tasks) {
			name := tasks[t.cursor]
			if err := t.machine.SelectTask(name); err != nil {
				return t, func() tea.Msg { return errorStatus("Error: %v", err) }
			}
			return t, status("Working on " + name)
		}
	case key.Matches(kmsg, keys.Back):
		if t.machine.CurrentTask() != "" {
			t.machine.SelectTask("")
			return t, status("Task cleared")
		}
	case key.Matches(kmsg, keys.New):
		return t.showNewTaskForm()
	}
	return t, nil
}

func (t tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*t.formName = ""
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task Name").
				Value(t.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		return t.addTask(*t.formName)
	}
	return t, cmd
}

func (t tasksModel) addTask(name string) (tasksModel, tea.Cmd) {
	added, err := t.machine.AddTask(name)
	if err != nil {
		return t, func() tea.Msg { return errorStatus("Task added but not saved: %v", err) }
	}
	if !added {
		return t, status("Task already exists")
	}
	t.cursor = len(t.screen.tasks) - 1
	return t, status("Added " + strings.TrimSpace(name))
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", t.form.View()),
		)
	}

	title := titleStyle.Render("Tasks")
	if len(t.screen.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No tasks yet. Press n to add one.")))
	}

	current := t.machine.CurrentTask()
	rows := []string{title, ""}
	for i, name := range t.screen.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := ""
		if name == current {
			marker = successStyle.Render(" ●")
		}
		rows = append(rows, style.Render(cursor+name)+marker)
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  enter: work on  esc: clear"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
