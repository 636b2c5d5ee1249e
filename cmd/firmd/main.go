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

// Command firmd runs the firm ActivityPub server, grounded on the
// teacher's cmdline.go action table (serve / configure / help) built on
// the standard flag package -- the teacher pulls in kingpin only
// transitively through promptui, never importing it directly, so this
// entrypoint follows suit rather than wiring a CLI framework the teacher
// itself doesn't call.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stevebate/firm/internal/config"
	"github.com/stevebate/firm/internal/fnlog"
)

var (
	configFlag = flag.String("config", "firm.ini", "Path to the configuration file")
	debugFlag  = flag.Bool("debug", false, "Log to stdout/stderr regardless of other logging flags")
)

type cmdAction struct {
	Name        string
	Description string
	Action      func() error
}

func (c cmdAction) String() string {
	return fmt.Sprintf("  %s\n    \t%s", c.Name, c.Description)
}

var allActions = []cmdAction{
	{Name: "serve", Description: "Launch the server using the configuration file.", Action: serveAction},
	{Name: "genconfig", Description: "Create a new configuration file via an interactive prompt.", Action: genConfigAction},
	{Name: "help", Description: "Print this help dialog.", Action: helpAction},
}

func allActionsUsage() string {
	var b bytes.Buffer
	for _, a := range allActions {
		b.WriteString(a.String())
		b.WriteString("\n")
	}
	return b.String()
}

func helpAction() error {
	flag.Usage()
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage:\n\n    firmd <action> [flags]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Supported actions are:\n%s\n", allActionsUsage())
		fmt.Fprintf(flag.CommandLine.Output(), "Supported flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*debugFlag {
		fnlog.ToStdout()
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	name := flag.Arg(0)
	for _, a := range allActions {
		if a.Name == name {
			if err := a.Action(); err != nil {
				fnlog.Error.Errorf("%s: %v", name, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Unknown action: %s\n\n", name)
	flag.Usage()
	os.Exit(1)
}

// serveAction loads the configuration and runs the HTTP server until an
// interrupt or SIGTERM is received, mirroring apcore's serveFn/Run
// signal-handling shape.
func serveAction() error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	srv, err := newServer(cfg)
	if err != nil {
		return err
	}
	interruptCh := make(chan os.Signal, 2)
	signal.Notify(interruptCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interruptCh
		fnlog.Info.Info("shutting down")
		srv.Close()
	}()
	return srv.ListenAndServe()
}
