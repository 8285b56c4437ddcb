package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"
)

func (a *App) getStatus() string {
	s := ""
	if a.config.UserName != "" {
		s = a.config.UserName
	} else if a.config.UserID != "" {
		s = a.config.UserID
	} else {
		s = "anónimo"
	}
	if age, ok := a.cache.Age(); ok {
		if age > 10*time.Minute {
			s += " @loc?"
		} else {
			s += " @loc"
		}
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the interactive loop on stdin until exit or ctx cancellation.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to Centinela (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
