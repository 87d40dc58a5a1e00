package scaffold

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// descriptions are shown next to each template in the picker.
var descriptions = map[string]string{
	"devcontainer": "VS Code dev container with PHP, MariaDB and Selenium",
	"docs-lint":    "Vale and markdownlint-cli2 configuration",
}

// Choose asks the user to pick one of names on the terminal.
func Choose(names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no templates available")
	}
	opts := make([]huh.Option[string], 0, len(names))
	for _, n := range names {
		label := n
		if d, ok := descriptions[n]; ok {
			label = n + " - " + d
		}
		opts = append(opts, huh.NewOption(label, n))
	}

	choice := names[0]
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Template").
			Description("Files that already exist are left alone unless --force is given.").
			Options(opts...).
			Value(&choice),
	)).Run()
	if err != nil {
		return "", fmt.Errorf("choosing template: %w", err)
	}
	return choice, nil
}
