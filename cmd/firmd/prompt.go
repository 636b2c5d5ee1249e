// firm is a server implementing the ActivityPub federation protocol.
// Copyright (C) 2019 Cory Slep
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

func promptYN(display string, def bool) (bool, error) {
	defStr := "y/N"
	if def {
		defStr = "Y/n"
	}
	p := promptui.Prompt{
		Label: display,
		Templates: &promptui.PromptTemplates{
			Prompt:  fmt.Sprintf(`{{ "%s" | bold }} {{ . | bold }} {{ "[%s]" | faint }}`, promptui.IconInitial, defStr),
			Valid:   fmt.Sprintf(`{{ "%s" | bold }} {{ . | bold }} {{ "[%s]" | faint }}`, promptui.IconGood, defStr),
			Invalid: fmt.Sprintf(`{{ "%s" | bold }} {{ . | bold }} {{ "[%s]" | faint }}`, promptui.IconBad, defStr),
			Success: fmt.Sprintf(`{{ "%s" | bold }} {{ . | faint }} {{ "[%s]" | faint }}`, promptui.IconGood, defStr),
		},
	}
	s, err := p.Run()
	if err != nil {
		return false, err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	switch s {
	case "y":
		return true, nil
	case "n":
		return false, nil
	default:
		return false, fmt.Errorf("unknown confirm prompt response: %q", s)
	}
}

func promptStringWithDefault(display, def string) (string, error) {
	p := promptui.Prompt{
		Label:     display,
		Default:   def,
		AllowEdit: false,
		Templates: &promptui.PromptTemplates{
			Prompt:  fmt.Sprintf(`{{ "%s" | bold }} {{ . | bold }}{{ ":" | bold}}`, promptui.IconInitial),
			Valid:   fmt.Sprintf(`{{ "%s" | bold }} {{ . | bold }}{{ ":" | bold}}`, promptui.IconGood),
			Invalid: fmt.Sprintf(`{{ "%s" | bold }} {{ . | bold }}{{ ":" | bold}}`, promptui.IconBad),
			Success: fmt.Sprintf(`{{ "%s" | bold }} {{ . | faint }}{{ ":" | bold}}`, promptui.IconGood),
		},
	}
	return p.Run()
}

func promptSelection(display string, choices ...string) (string, error) {
	p := promptui.Select{
		Label: display,
		Items: choices,
	}
	_, s, err := p.Run()
	return s, err
}

func promptIntWithDefault(display string, def int) (int, error) {
	p := promptui.Prompt{
		Label:     display,
		Default:   strconv.Itoa(def),
		AllowEdit: false,
		Validate: func(input string) error {
			if _, err := strconv.ParseInt(input, 10, 32); err != nil {
				return fmt.Errorf("invalid number")
			}
			return nil
		},
	}
	s, err := p.Run()
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(s, 10, 32)
	return int(i), err
}
