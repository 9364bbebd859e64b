// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/cmdutil"
	_ "github.com/xyzzyz/cryptodev/cmdutil/interactive"
	"github.com/xyzzyz/cryptodev/cryptiface"
	"github.com/xyzzyz/cryptodev/errors"
	"v.io/x/lib/cmdline"
)

var waitFlag time.Duration

func newCmdShell() *cmdline.Command {
	cmd := &cmdline.Command{
		Runner: cmdutil.RunnerFunc(runShell),
		Name:   "shell",
		Short:  "Interactive console over one handle",
		Long: `
Shell opens one handle and reads commands from a line-edited prompt.
Type "help" for the list of commands.
`,
	}
	addCommonFlags(&cmd.Flags)
	cmd.Flags.DurationVar(&waitFlag, "wait", 5*time.Second, "how long blocking commands wait")
	return cmd
}

var shellHelp = `commands:
  add <alg> <hexkey>       add a key, print its slot
  del <alg> <slot>         delete a key
  use <alg> <slot> enc|dec make a key current
  write <text>             transform text
  writehex <hex>           transform hex encoded bytes
  read [n]                 read up to n bytes of the oldest result
  wait [n]                 like read, but wait for a result
  count                    number of queued results
  ls                       list the keys of the owner
  usage                    slot usage of every owner
  next                     wait for the next added key
  ctl <line>               send a key control line for -alg
  algs                     list the algorithms
  help                     print this message
  quit                     leave the shell
`

type shell struct {
	svc  *cryptiface.Service
	h    *cryptiface.Handle
	ctl  *cryptiface.KeyControl
	out  io.Writer
	wait time.Duration
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cryptiface_history")
}

func runShell(env *cmdline.Env, args []string) (err error) {
	if len(args) != 0 {
		return env.UsageErrorf("shell takes no arguments")
	}
	sh, err := newShell(env.Stdout)
	if err != nil {
		return err
	}
	defer errors.CleanUp(sh.close, &err)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)
	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if path := historyFile(); path != "" {
			if f, err := os.Create(path); err == nil {
				_, _ = line.WriteHistory(f)
				f.Close()
			}
		}
	}()

	fmt.Fprintf(env.Stdout, "cryptiface shell, owner %d; type 'help' for commands\n", owner())
	for {
		input, err := line.Prompt("cryptiface> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.E(err, "reading input")
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		quit, err := sh.exec(input)
		if err != nil {
			fmt.Fprintf(env.Stdout, "error (%s): %v\n", cryptiface.Status(err), err)
		}
		if quit {
			return nil
		}
	}
}

func newShell(out io.Writer) (*shell, error) {
	alg, err := algorithm()
	if err != nil {
		return nil, err
	}
	svc, err := newService()
	if err != nil {
		return nil, err
	}
	h, err := svc.Open(owner())
	if err != nil {
		return nil, err
	}
	ctl, err := svc.KeyControl(owner(), alg)
	if err != nil {
		return nil, err
	}
	return &shell{svc: svc, h: h, ctl: ctl, out: out, wait: waitFlag}, nil
}

// close closes the console's handle, dropping unread results.
func (s *shell) close() error {
	return s.h.Close(context.Background())
}

var shellCommands = []string{
	"add", "algs", "count", "ctl", "del", "help", "ls", "next",
	"quit", "read", "usage", "use", "wait", "write", "writehex",
}

func (s *shell) complete(line string) []string {
	var out []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

// exec runs one console command and reports whether the console
// should exit.
func (s *shell) exec(input string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.wait)
	defer cancel()
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help":
		cmdutil.WriteWrappedMessage(s.out, shellHelp)
	case "algs":
		for _, alg := range blockcipher.Default.Algorithms() {
			spec, _ := blockcipher.Default.Lookup(alg)
			fmt.Fprintf(s.out, "%d\t%s\tblock %d\tkeys %v\n", int(alg), spec.Name, spec.BlockSize, spec.KeySizes)
		}
	case "add":
		if len(args) != 2 {
			return false, usage("add <alg> <hexkey>")
		}
		alg, err := blockcipher.Default.LookupName(args[0])
		if err != nil {
			return false, err
		}
		id, err := cryptiface.AddKey(ctx, s.h, alg, args[1])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "slot %d\n", id)
	case "del":
		if len(args) != 2 {
			return false, usage("del <alg> <slot>")
		}
		alg, id, err := algAndSlot(args[0], args[1])
		if err != nil {
			return false, err
		}
		return false, cryptiface.DelKey(ctx, s.h, alg, id)
	case "use":
		if len(args) != 3 || (args[2] != "enc" && args[2] != "dec") {
			return false, usage("use <alg> <slot> enc|dec")
		}
		alg, id, err := algAndSlot(args[0], args[1])
		if err != nil {
			return false, err
		}
		return false, cryptiface.SetCurrent(ctx, s.h, alg, id, args[2] == "enc")
	case "write", "writehex":
		data := []byte(rest)
		if cmd == "writehex" {
			var err error
			if data, err = hex.DecodeString(rest); err != nil {
				return false, errors.E(errors.Invalid, err, "writehex")
			}
		}
		n, err := s.h.Write(ctx, data)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "wrote %d bytes\n", n)
	case "read", "wait":
		size := 4096
		if len(args) == 1 {
			var err error
			if size, err = strconv.Atoi(args[0]); err != nil || size <= 0 {
				return false, usage(cmd + " [n]")
			}
		}
		buf := make([]byte, size)
		var (
			n   int
			err error
		)
		if cmd == "wait" {
			n, err = s.h.ReadWait(ctx, buf)
		} else {
			n, err = s.h.Read(buf)
		}
		if err != nil {
			return false, err
		}
		fmt.Fprint(s.out, hex.Dump(buf[:n]))
	case "count":
		n, err := cryptiface.NumResults(ctx, s.h)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, n)
	case "ls":
		return false, s.svc.Overview(ctx, s.h.Owner(), s.out)
	case "usage":
		return false, s.svc.Usage(ctx, s.out)
	case "next":
		id, err := s.ctl.NextKey(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "new key in slot %d\n", id)
	case "ctl":
		if _, err := s.ctl.Write(ctx, []byte(rest)); err != nil {
			return false, err
		}
	default:
		return false, usage(fmt.Sprintf("unknown command %q; try help", cmd))
	}
	return false, nil
}

func usage(msg string) error {
	return errors.E(errors.Invalid, "usage: "+msg)
}

func algAndSlot(name, slot string) (blockcipher.Algorithm, int, error) {
	alg, err := blockcipher.Default.LookupName(name)
	if err != nil {
		return 0, 0, err
	}
	id, err := strconv.Atoi(slot)
	if err != nil {
		return 0, 0, errors.E(errors.Invalid, err, "slot")
	}
	return alg, id, nil
}
