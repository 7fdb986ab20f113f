package main

import (
	"fmt"
	"os"

	"github.com/vinwin12/linux-kernel/internal/common"
)

// kernel implements keyboard.Host here rather than in package keyboard,
// which only declares the interface to avoid importing package terminal
// (see keyboard.go's doc comment). This is the one place Translate's
// Ctrl+L and Alt+Fn chords actually do something, composing
// terminal.Table's switch/clear/backspace primitives with package exec's
// shell launch.

// ClearVisibleScreen handles Ctrl+L.
func (k *kernel) ClearVisibleScreen() {
	k.Terms.ClearVisible()
}

// Backspace erases one cell/char from the visible terminal.
func (k *kernel) Backspace() {
	k.Terms.BackspaceVisible()
}

// SwitchTerminal handles Alt+F1/F2/F3: it runs spec.md §4.3's five-step
// terminal switch (terminal.Table.SwitchTerminal does steps 1-4), then
// launches "shell" for a terminal being shown for the first time, step
// 5. If that launch fails, the switch is rolled back so the kernel is
// never left on a visible terminal with no process.
func (k *kernel) SwitchTerminal(idx int) {
	target := common.TermIdx(idx)
	prev := k.Terms.Visible

	needsLaunch := k.Terms.SwitchTerminal(target, k.PD)
	if !needsLaunch {
		return
	}

	res := k.Exec.Execute("shell")
	if res.Started {
		return
	}

	fmt.Fprintf(os.Stderr, "failed to launch shell on terminal %d: %v\n", idx, res.Message)
	k.Terms.Terms[target].HasBeenLaunched = false
	k.Terms.SwitchTerminal(prev, k.PD)
}
